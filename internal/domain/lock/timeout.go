package lock

import (
	"errors"
	"time"
)

// Timeout is the number of seconds the strike is held open after an unlock.
type Timeout uint8

const (
	// MinTimeout is the shortest hold time accepted.
	MinTimeout Timeout = 5
	// MaxTimeout is the longest hold time accepted.
	MaxTimeout Timeout = 30
	// DefaultTimeout is used when the stored value is missing or out of range.
	DefaultTimeout Timeout = 10
)

// ErrTimeoutOutOfRange is returned for timeouts outside [MinTimeout, MaxTimeout].
var ErrTimeoutOutOfRange = errors.New("timeout must be between 5 and 30 seconds")

// ParseTimeout converts an integer to a Timeout, rejecting out-of-range values.
func ParseTimeout(seconds int) (Timeout, error) {
	if seconds < int(MinTimeout) || seconds > int(MaxTimeout) {
		return 0, ErrTimeoutOutOfRange
	}

	return Timeout(seconds), nil
}

// Valid reports whether t is within the accepted range.
func (t Timeout) Valid() bool {
	return t >= MinTimeout && t <= MaxTimeout
}

// OrDefault returns t when valid, DefaultTimeout otherwise.
func (t Timeout) OrDefault() Timeout {
	if !t.Valid() {
		return DefaultTimeout
	}

	return t
}

// Duration converts the timeout to a time.Duration.
func (t Timeout) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// TimeoutFromDial maps a raw 12-bit dial reading (0..4095) linearly onto the timeout range.
func TimeoutFromDial(raw uint16) Timeout {
	const dialMax = 4095

	if raw > dialMax {
		raw = dialMax
	}

	span := uint32(MaxTimeout - MinTimeout)

	return MinTimeout + Timeout(uint32(raw)*span/dialMax)
}
