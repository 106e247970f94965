// Package simulator runs the control node and the operator panel in one
// process, joined by an in-memory null-modem link instead of a serial cable.
// The panel uses the terminal console; the strike and buzzer are logged.
package simulator
