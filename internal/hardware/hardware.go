package hardware

import "context"

// Keypad is a 4x4 matrix keypad.
type Keypad interface {
	// Key returns the pressed key, if any, without blocking.
	Key() (rune, bool)
}

// Display is a character display with DisplayRows rows of DisplayColumns cells.
type Display interface {
	Clear()
	SetCursor(row, col int)
	WriteString(s string)
	WriteChar(c rune)
}

const (
	// DisplayRows is the number of text rows on the display.
	DisplayRows = 2
	// DisplayColumns is the number of characters per row.
	DisplayColumns = 16
)

// AnalogInput is a 12-bit dial.
type AnalogInput interface {
	// ReadRaw returns a sample in [0, AnalogMax].
	ReadRaw() uint16
}

// AnalogMax is the full-scale analog reading.
const AnalogMax = 4095

// LED identifies a status light.
type LED uint8

const (
	// LEDRed signals a rejection or lockout.
	LEDRed LED = iota
	// LEDGreen signals success.
	LEDGreen
	// LEDBlue is spare.
	LEDBlue
)

// String returns the colour name.
func (l LED) String() string {
	switch l {
	case LEDRed:
		return "red"
	case LEDGreen:
		return "green"
	case LEDBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// StatusIndicator drives the status LEDs.
type StatusIndicator interface {
	On(led LED)
	Off(led LED)
	AllOff()
}

// Direction is the motor drive state.
type Direction uint8

const (
	// DirectionStop removes drive from the motor.
	DirectionStop Direction = iota
	// DirectionOpen retracts the strike.
	DirectionOpen
	// DirectionClose extends the strike.
	DirectionClose
)

// String returns a readable name for logs.
func (d Direction) String() string {
	switch d {
	case DirectionStop:
		return "stop"
	case DirectionOpen:
		return "open"
	case DirectionClose:
		return "close"
	default:
		return "unknown"
	}
}

// Motor drives the lock strike.
type Motor interface {
	Drive(ctx context.Context, direction Direction) error
}

// Buzzer drives the alarm sounder.
type Buzzer interface {
	Set(ctx context.Context, on bool) error
}
