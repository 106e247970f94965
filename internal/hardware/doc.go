// Package hardware declares the peripherals the two nodes drive and provides
// implementations that run without the physical boards.
//
// The panel consumes a Keypad, a character Display, an AnalogInput dial and a
// StatusIndicator; Console implements all four on a terminal. The control node
// drives a Motor and a Buzzer; the logging drivers record every transition
// through the structured logger.
package hardware
