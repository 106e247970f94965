package hardware

import (
	"context"
	"sync"

	"github.com/oshokin/door-lock/internal/logger"
)

// LoggingMotor is a Motor that only records transitions in the log.
// It stands in for the H-bridge when the control node runs off-board.
type LoggingMotor struct {
	mu    sync.Mutex
	state Direction
}

// NewLoggingMotor returns a stopped logging motor.
func NewLoggingMotor() *LoggingMotor {
	return new(LoggingMotor)
}

// Drive logs the new direction.
func (m *LoggingMotor) Drive(ctx context.Context, direction Direction) error {
	m.mu.Lock()
	previous := m.state
	m.state = direction
	m.mu.Unlock()

	logger.InfoKV(ctx, "Motor", "from", previous.String(), "to", direction.String())

	return nil
}

// State returns the last commanded direction.
func (m *LoggingMotor) State() Direction {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// LoggingBuzzer is a Buzzer that only records transitions in the log.
type LoggingBuzzer struct {
	mu sync.Mutex
	on bool
}

// NewLoggingBuzzer returns a silent logging buzzer.
func NewLoggingBuzzer() *LoggingBuzzer {
	return new(LoggingBuzzer)
}

// Set logs the new buzzer state.
func (b *LoggingBuzzer) Set(ctx context.Context, on bool) error {
	b.mu.Lock()
	b.on = on
	b.mu.Unlock()

	logger.DebugKV(ctx, "Buzzer", "on", on)

	return nil
}

// On reports whether the buzzer is sounding.
func (b *LoggingBuzzer) On() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.on
}
