package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/protocol"
	"github.com/oshokin/door-lock/internal/repository/store"
)

// DefaultAckDelay separates the PWD acknowledgement from the start of the unlock cycle.
const DefaultAckDelay = 50 * time.Millisecond

// Link is the part of the serial link the engine needs.
type Link interface {
	ReceiveByte(ctx context.Context) (byte, error)
	SendByte(b byte) error
	Flush() int
}

// Sequencer runs the physical sequences.
type Sequencer interface {
	UnlockCycle(ctx context.Context, hold lock.Timeout) error
	AlarmPattern(ctx context.Context) error
}

// Engine parses commands from the link and executes them.
type Engine struct {
	// link carries commands in and responses out.
	link Link
	// repo holds the credential, timeout and configured flag.
	repo store.Repository
	// sequencer drives the motor and buzzer.
	sequencer Sequencer
	// line accumulates the command being received.
	line protocol.LineBuffer
	// ackDelay is the pause between a PWD ack and the unlock cycle.
	ackDelay time.Duration
}

// NewEngine creates an engine. repo must already be initialised.
func NewEngine(link Link, repo store.Repository, sequencer Sequencer) *Engine {
	return &Engine{
		link:      link,
		repo:      repo,
		sequencer: sequencer,
		ackDelay:  DefaultAckDelay,
	}
}

// Serve flushes boot noise and then handles commands until the context ends.
func (e *Engine) Serve(ctx context.Context) error {
	if dropped := e.link.Flush(); dropped > 0 {
		logger.DebugKV(ctx, "Discarded pending input", "bytes", dropped)
	}

	logger.Info(ctx, "Waiting for commands")

	for {
		b, err := e.link.ReceiveByte(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("receive command: %w", err)
		}

		line, result := e.line.Push(b)

		switch result {
		case protocol.PushComplete:
			e.Dispatch(ctx, line)
		case protocol.PushOverflow:
			logger.WarnKV(ctx, "Line buffer overflow, input discarded", "capacity", protocol.LineBufferSize)
		case protocol.PushPending:
		}
	}
}

// Dispatch executes one complete line. It returns once any triggered sequence has finished.
func (e *Engine) Dispatch(ctx context.Context, line []byte) {
	cmd, err := protocol.Parse(line)
	if err != nil {
		if !errors.Is(err, protocol.ErrEmptyLine) {
			logger.WarnKV(ctx, "Ignoring line", "reason", err, "length", len(line))
		}

		return
	}

	logger.DebugKV(ctx, "Command received", "command", cmd.String())

	switch cmd.Verb {
	case protocol.VerbStatus:
		e.handleStatus(ctx)
	case protocol.VerbSet:
		e.reply(ctx, cmd, e.handleSet(ctx, cmd))
	case protocol.VerbCheck:
		e.reply(ctx, cmd, protocol.FromBool(e.verify(ctx, cmd)))
	case protocol.VerbUnlock:
		e.handleUnlock(ctx, cmd)
	case protocol.VerbAlarm:
		e.handleAlarm(ctx)
	case protocol.VerbSetTimeout:
		e.reply(ctx, cmd, e.handleSetTimeout(ctx, cmd))
	}
}

func (e *Engine) handleStatus(ctx context.Context) {
	configured, err := e.repo.IsConfigured(ctx)
	if err != nil {
		// Silence lets the panel retry instead of falling into setup.
		logger.ErrorKV(ctx, "Read configured flag failed", "error", err)

		return
	}

	e.reply(ctx, protocol.Status(), protocol.FromBool(configured))
}

func (e *Engine) handleSet(ctx context.Context, cmd protocol.Command) protocol.Response {
	credential, err := cmd.Credential()
	if err != nil {
		logger.WarnKV(ctx, "Rejecting credential", "reason", err, "digits", len(cmd.Payload))

		return protocol.ResponseFail
	}

	if err = e.repo.WriteCredential(ctx, credential); err != nil {
		logger.ErrorKV(ctx, "Write credential failed", "error", err)

		return protocol.ResponseFail
	}

	if err = e.repo.MarkConfigured(ctx); err != nil {
		logger.ErrorKV(ctx, "Mark configured failed", "error", err)

		return protocol.ResponseFail
	}

	logger.Info(ctx, "Credential updated")

	return protocol.ResponseOK
}

func (e *Engine) handleUnlock(ctx context.Context, cmd protocol.Command) {
	if !e.verify(ctx, cmd) {
		e.reply(ctx, cmd, protocol.ResponseFail)

		return
	}

	// The ack goes out before the cycle so the panel can report while the door is open.
	e.reply(ctx, cmd, protocol.ResponseOK)

	time.Sleep(e.ackDelay)

	hold, err := e.repo.ReadTimeout(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Read timeout failed, using default", "error", err)

		hold = lock.DefaultTimeout
	}

	logger.InfoKV(ctx, "Unlocking", "hold_seconds", int(hold))

	if err = e.sequencer.UnlockCycle(ctx, hold); err != nil {
		logger.ErrorKV(ctx, "Unlock cycle failed", "error", err)
	}

	e.discardQueued(ctx)
}

func (e *Engine) handleAlarm(ctx context.Context) {
	logger.Warn(ctx, "Alarm requested")

	if err := e.sequencer.AlarmPattern(ctx); err != nil {
		logger.ErrorKV(ctx, "Alarm pattern failed", "error", err)
	}

	e.discardQueued(ctx)
}

// discardQueued drops everything received while a sequence ran, partial line included.
func (e *Engine) discardQueued(ctx context.Context) {
	pending := e.line.Len()
	e.line.Reset()

	if dropped := e.link.Flush() + pending; dropped > 0 {
		logger.WarnKV(ctx, "Discarded input received during sequence", "bytes", dropped)
	}
}

func (e *Engine) handleSetTimeout(ctx context.Context, cmd protocol.Command) protocol.Response {
	timeout, err := cmd.Timeout()
	if err != nil {
		logger.WarnKV(ctx, "Rejecting timeout", "payload", cmd.Payload)

		return protocol.ResponseFail
	}

	if err = e.repo.WriteTimeout(ctx, timeout); err != nil {
		logger.ErrorKV(ctx, "Write timeout failed", "error", err)

		return protocol.ResponseFail
	}

	logger.InfoKV(ctx, "Timeout updated", "seconds", int(timeout))

	return protocol.ResponseOK
}

// verify compares the payload with the stored credential.
func (e *Engine) verify(ctx context.Context, cmd protocol.Command) bool {
	candidate, err := cmd.Credential()
	if err != nil {
		return false
	}

	stored, err := e.repo.ReadCredential(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Read credential failed", "error", err)

		return false
	}

	return stored.Equal(candidate)
}

func (e *Engine) reply(ctx context.Context, cmd protocol.Command, response protocol.Response) {
	if err := e.link.SendByte(response.Byte()); err != nil {
		logger.ErrorKV(ctx, "Send response failed", "command", cmd.String(), "error", err)

		return
	}

	logger.DebugKV(ctx, "Response sent", "command", cmd.String(), "response", response.String())
}
