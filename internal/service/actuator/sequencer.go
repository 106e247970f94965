package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
)

const (
	// DefaultSettleInterval is how long the motor drives to reach either end stop.
	DefaultSettleInterval = 1 * time.Second

	// AlarmPulses is the number of buzzer pulses in the alarm pattern.
	AlarmPulses = 3
	// AlarmPulseOn is how long each pulse sounds.
	AlarmPulseOn = 150 * time.Millisecond
	// AlarmPulseGap is the silence between pulses; there is none after the last one.
	AlarmPulseGap = 100 * time.Millisecond
)

// Sequencer runs the unlock cycle and the alarm pattern.
type Sequencer struct {
	// motor drives the strike.
	motor hardware.Motor
	// buzzer drives the sounder.
	buzzer hardware.Buzzer
	// settle is the open and close drive time.
	settle time.Duration
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSettleInterval overrides the motor drive time.
func WithSettleInterval(d time.Duration) Option {
	return func(s *Sequencer) {
		if d > 0 {
			s.settle = d
		}
	}
}

// New creates a sequencer for the given drivers.
func New(motor hardware.Motor, buzzer hardware.Buzzer, opts ...Option) *Sequencer {
	s := &Sequencer{
		motor:  motor,
		buzzer: buzzer,
		settle: DefaultSettleInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// UnlockCycle drives open, holds for hold, drives closed and stops.
// It blocks for 2×settle + hold and ignores cancellation so the strike is always relocked.
// On a driver error the motor is commanded to stop and the error is returned.
func (s *Sequencer) UnlockCycle(ctx context.Context, hold lock.Timeout) error {
	ctx = context.WithoutCancel(ctx)

	steps := []struct {
		phase     string
		direction hardware.Direction
		wait      time.Duration
	}{
		{phase: "unlocking", direction: hardware.DirectionOpen, wait: s.settle},
		{phase: "holding_open", direction: hardware.DirectionStop, wait: hold.Duration()},
		{phase: "relocking", direction: hardware.DirectionClose, wait: s.settle},
	}

	for _, step := range steps {
		logger.DebugKV(ctx, "Unlock cycle", "phase", step.phase, "duration", step.wait)

		if err := s.motor.Drive(ctx, step.direction); err != nil {
			return s.abort(ctx, fmt.Errorf("%s: %w", step.phase, err))
		}

		time.Sleep(step.wait)
	}

	if err := s.motor.Drive(ctx, hardware.DirectionStop); err != nil {
		return fmt.Errorf("stop motor: %w", err)
	}

	logger.InfoKV(ctx, "Unlock cycle complete", "hold_seconds", int(hold))

	return nil
}

// AlarmPattern sounds AlarmPulses pulses of AlarmPulseOn separated by AlarmPulseGap.
func (s *Sequencer) AlarmPattern(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	for i := range AlarmPulses {
		if err := s.buzzer.Set(ctx, true); err != nil {
			return errors.Join(fmt.Errorf("buzzer on: %w", err), s.buzzer.Set(ctx, false))
		}

		time.Sleep(AlarmPulseOn)

		if err := s.buzzer.Set(ctx, false); err != nil {
			return fmt.Errorf("buzzer off: %w", err)
		}

		if i < AlarmPulses-1 {
			time.Sleep(AlarmPulseGap)
		}
	}

	logger.InfoKV(ctx, "Alarm pattern complete", "pulses", AlarmPulses)

	return nil
}

func (s *Sequencer) abort(ctx context.Context, cause error) error {
	if err := s.motor.Drive(ctx, hardware.DirectionStop); err != nil {
		return errors.Join(cause, fmt.Errorf("stop motor: %w", err))
	}

	return cause
}
