//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/door-lock/internal/config"
	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/protocol"
	"github.com/oshokin/door-lock/internal/transport"
)

const (
	// DefaultStatusAttempts is how many times STS is sent before giving up.
	DefaultStatusAttempts = 5
	// DefaultStatusWindow is how long each STS attempt waits for an answer.
	DefaultStatusWindow = 100 * time.Millisecond
	// DefaultStatusGap is the pause between STS attempts.
	DefaultStatusGap = 200 * time.Millisecond
)

// Link is the part of the serial link the client needs.
type Link interface {
	Send(data []byte) error
	ReceiveByte(ctx context.Context) (byte, error)
	Flush() int
	Close() error
}

// Client speaks the lock protocol from the panel side.
type Client struct {
	// link is the serial connection to the control node.
	link Link

	// callTimeout bounds the wait for a one-byte answer.
	callTimeout time.Duration
	// statusAttempts is how many STS queries Status sends.
	statusAttempts int
	// statusWindow is the answer window of each STS query.
	statusWindow time.Duration
	// statusGap is the pause between STS queries.
	statusGap time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the bound on waiting for an answer.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithStatusRetry overrides the STS retry policy.
func WithStatusRetry(attempts int, window, gap time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.statusAttempts = attempts
		}

		if window > 0 {
			c.statusWindow = window
		}

		if gap >= 0 {
			c.statusGap = gap
		}
	}
}

var (
	// errPortRequired is returned when no serial port is given.
	errPortRequired = errors.New("serial port must be provided")
	// ErrNoResponse is returned by Status when the control node never answered.
	ErrNoResponse = errors.New("control node did not respond")
)

// Dial opens the serial port and returns a client on it.
func Dial(_ context.Context, port string, baudRate int, opts ...Option) (*Client, error) {
	if port == "" {
		return nil, errPortRequired
	}

	link, err := transport.OpenSerial(port, baudRate)
	if err != nil {
		return nil, fmt.Errorf("dial control node: %w", err)
	}

	return NewClient(link, opts...), nil
}

// NewClient returns a client on an already open link.
func NewClient(link Link, opts ...Option) *Client {
	client := &Client{
		link:           link,
		callTimeout:    config.DefaultResponseTimeout,
		statusAttempts: DefaultStatusAttempts,
		statusWindow:   DefaultStatusWindow,
		statusGap:      DefaultStatusGap,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying link.
func (c *Client) Close() error {
	if c == nil || c.link == nil {
		return nil
	}

	return c.link.Close()
}

// Status asks whether the control node has a credential.
// It returns ErrNoResponse when no attempt got an answer.
func (c *Client) Status(ctx context.Context) (bool, error) {
	for attempt := 1; attempt <= c.statusAttempts; attempt++ {
		response, err := c.call(ctx, protocol.Status(), c.statusWindow)
		if err != nil {
			return false, err
		}

		if response != protocol.NoResponse {
			return response.OK(), nil
		}

		logger.DebugKV(ctx, "Status query unanswered", "attempt", attempt)

		if err = sleep(ctx, c.statusGap); err != nil {
			return false, err
		}
	}

	return false, ErrNoResponse
}

// SetCredential stores a new credential.
func (c *Client) SetCredential(ctx context.Context, credential lock.Credential) (protocol.Response, error) {
	return c.Call(ctx, protocol.Set(credential))
}

// CheckCredential verifies a credential without side effects.
func (c *Client) CheckCredential(ctx context.Context, credential lock.Credential) (protocol.Response, error) {
	return c.Call(ctx, protocol.Check(credential))
}

// OpenDoor verifies a credential and, on success, makes the control node run the unlock cycle.
func (c *Client) OpenDoor(ctx context.Context, credential lock.Credential) (protocol.Response, error) {
	return c.Call(ctx, protocol.Unlock(credential))
}

// SetTimeout stores the unlock hold time.
func (c *Client) SetTimeout(ctx context.Context, timeout lock.Timeout) (protocol.Response, error) {
	return c.Call(ctx, protocol.SetTimeout(timeout))
}

// SoundAlarm asks the control node to sound the alarm. There is no answer to wait for.
func (c *Client) SoundAlarm(ctx context.Context) error {
	_, err := c.call(ctx, protocol.Alarm(), 0)

	return err
}

// Call sends cmd and waits up to the call timeout for '0' or '1'.
// An expired wait yields protocol.NoResponse with a nil error; errors are link failures or cancellation.
func (c *Client) Call(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	return c.call(ctx, cmd, c.callTimeout)
}

func (c *Client) call(ctx context.Context, cmd protocol.Command, wait time.Duration) (protocol.Response, error) {
	// A late answer to an earlier command must not be taken for this one.
	if dropped := c.link.Flush(); dropped > 0 {
		logger.DebugKV(ctx, "Discarded stale input", "bytes", dropped)
	}

	if err := c.link.Send(cmd.Encode()); err != nil {
		return protocol.NoResponse, fmt.Errorf("send %s: %w", cmd.Verb, err)
	}

	if !cmd.Verb.ExpectsResponse() {
		return protocol.NoResponse, nil
	}

	response, err := c.waitForResponse(ctx, wait)
	if err != nil {
		return protocol.NoResponse, fmt.Errorf("await %s: %w", cmd.Verb, err)
	}

	if response == protocol.NoResponse {
		logger.WarnKV(ctx, "No response", "command", cmd.String(), "waited", wait)
	}

	return response, nil
}

// waitForResponse returns the first '0' or '1' received within wait, discarding anything else.
func (c *Client) waitForResponse(ctx context.Context, wait time.Duration) (protocol.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		b, err := c.link.ReceiveByte(callCtx)
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return protocol.NoResponse, nil
			}

			return protocol.NoResponse, err
		}

		if response, ok := protocol.ResponseFromByte(b); ok {
			return response, nil
		}

		logger.DebugKV(ctx, "Discarded unexpected byte", "byte", b)
	}
}

// sleep waits for d or until the context ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
