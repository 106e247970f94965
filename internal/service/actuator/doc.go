// Package actuator sequences the control node's strike motor and buzzer.
//
// Both sequences are blocking timed patterns with no decisions beyond their
// parameter: the unlock cycle drives open for the settle interval, holds for
// the configured timeout and drives closed again; the alarm pattern sounds
// three short pulses. Neither can be interrupted once started.
package actuator
