package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/protocol"
)

const (
	// MaxAttempts is the number of rejected credentials that locks a flow out.
	MaxAttempts = 3
	// DefaultCooldown is how long the keypad stays locked after MaxAttempts rejections.
	DefaultCooldown = 20 * time.Second
	// DefaultKeyPoll is the keypad polling period.
	DefaultKeyPoll = 50 * time.Millisecond
	// DefaultKeyDebounce is the pause after an accepted key.
	DefaultKeyDebounce = 300 * time.Millisecond
	// DefaultDialRefresh is how often the timeout dial is sampled and rendered.
	DefaultDialRefresh = 100 * time.Millisecond
	// DefaultLinkRetry is the pause before the startup status query is repeated.
	DefaultLinkRetry = time.Second
)

// Client is the protocol surface the panel drives.
type Client interface {
	Status(ctx context.Context) (bool, error)
	SetCredential(ctx context.Context, credential lock.Credential) (protocol.Response, error)
	CheckCredential(ctx context.Context, credential lock.Credential) (protocol.Response, error)
	OpenDoor(ctx context.Context, credential lock.Credential) (protocol.Response, error)
	SetTimeout(ctx context.Context, timeout lock.Timeout) (protocol.Response, error)
	SoundAlarm(ctx context.Context) error
}

// keyDiscarder is implemented by keypads that buffer presses.
type keyDiscarder interface {
	DiscardPending() int
}

// Devices groups the panel peripherals.
type Devices struct {
	Keypad  hardware.Keypad
	Display hardware.Display
	Dial    hardware.AnalogInput
	LEDs    hardware.StatusIndicator
}

// Controller runs the operator session state machine.
type Controller struct {
	client  Client
	keypad  hardware.Keypad
	display hardware.Display
	dial    hardware.AnalogInput
	leds    hardware.StatusIndicator

	cooldown    time.Duration
	keyPoll     time.Duration
	keyDebounce time.Duration
	dialRefresh time.Duration
	linkRetry   time.Duration

	mu    sync.Mutex
	state lock.SessionState
}

// Option configures a Controller.
type Option func(*Controller)

// WithCooldown overrides the lockout cooldown.
func WithCooldown(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithLinkRetry overrides the pause between unanswered startup status rounds.
func WithLinkRetry(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.linkRetry = d
		}
	}
}

// NewController creates a controller in StateStartup.
func NewController(client Client, devices Devices, opts ...Option) *Controller {
	c := &Controller{
		client:      client,
		keypad:      devices.Keypad,
		display:     devices.Display,
		dial:        devices.Dial,
		leds:        devices.LEDs,
		cooldown:    DefaultCooldown,
		keyPoll:     DefaultKeyPoll,
		keyDebounce: DefaultKeyDebounce,
		dialRefresh: DefaultDialRefresh,
		linkRetry:   DefaultLinkRetry,
		state:       lock.StateStartup,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current session state.
func (c *Controller) State() lock.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Run shows the banner, logs the operator in and serves the menu until the context ends.
func (c *Controller) Run(ctx context.Context) error {
	c.show("Door Lock System", "")

	if err := pause(ctx, bannerDelay); err != nil {
		return err
	}

	if err := c.Start(ctx); err != nil {
		return err
	}

	for {
		if err := c.MenuOnce(ctx); err != nil {
			return err
		}
	}
}

// Start asks the control node whether it holds a credential and runs Login or Setup accordingly.
// Silence is never taken for "not configured": the panel shows "Link Down" and asks again.
func (c *Controller) Start(ctx context.Context) error {
	c.setState(ctx, lock.StateStartup)

	for {
		configured, err := c.client.Status(ctx)
		if err == nil {
			if configured {
				return c.login(ctx)
			}

			return c.setup(ctx)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.WarnKV(ctx, "Control node unreachable", "error", err, "retry_in", c.linkRetry)
		c.show("Link Down", "Retrying...")

		if err = pause(ctx, c.linkRetry); err != nil {
			return err
		}
	}
}

// MenuOnce shows the main menu, waits for a menu key and runs the chosen flow.
func (c *Controller) MenuOnce(ctx context.Context) error {
	c.setState(ctx, lock.StateMenuIdle)
	c.show("A:Open B:ChgPass", "*:Set Timeout")

	for {
		key, err := c.waitKey(ctx)
		if err != nil {
			return err
		}

		switch key {
		case 'A':
			return c.OpenDoor(ctx)
		case 'B':
			return c.ChangePassword(ctx)
		case '*':
			return c.SetTimeout(ctx)
		}
	}
}

func (c *Controller) setState(ctx context.Context, next lock.SessionState) {
	c.mu.Lock()
	previous := c.state
	c.state = next
	c.mu.Unlock()

	if previous != next {
		logger.DebugKV(ctx, "Session state changed", "from", previous.String(), "to", next.String())
	}
}

// request runs one protocol call and folds the outcome into accepted or not.
// No answer and link errors count as a rejection; only cancellation is returned.
func (c *Controller) request(
	ctx context.Context,
	verb protocol.Verb,
	call func(context.Context) (protocol.Response, error),
) (bool, error) {
	response, err := call(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		logger.ErrorKV(ctx, "Request failed", "command", verb, "error", err)

		return false, nil
	}

	if response == protocol.NoResponse {
		logger.WarnKV(ctx, "Control node did not answer", "command", verb)
	}

	return response.OK(), nil
}

// lockout sounds the alarm and keeps the panel blocked for the cooldown.
func (c *Controller) lockout(ctx context.Context) error {
	c.setState(ctx, lock.StateLockout)
	logger.WarnKV(ctx, "Too many rejected attempts, panel locked", "cooldown", c.cooldown)

	if err := c.client.SoundAlarm(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.ErrorKV(ctx, "Failed to request alarm", "error", err)
	}

	wait := fmt.Sprintf("Wait %ds...", int(c.cooldown/time.Second))

	return c.feedback(ctx, hardware.LEDRed, c.cooldown, "System Locked!", wait)
}

// feedback lights led, shows the message for d and switches every LED off.
func (c *Controller) feedback(ctx context.Context, led hardware.LED, d time.Duration, rows ...string) error {
	c.leds.On(led)
	defer c.leds.AllOff()

	c.show(rows...)

	err := pause(ctx, d)

	// Keys pressed while a message is up must not feed the next prompt.
	if discarder, ok := c.keypad.(keyDiscarder); ok {
		if dropped := discarder.DiscardPending(); dropped > 0 {
			logger.DebugKV(ctx, "Discarded keys pressed during message", "keys", dropped)
		}
	}

	return err
}

// show clears the display and writes one string per row.
func (c *Controller) show(rows ...string) {
	c.display.Clear()

	for row, text := range rows {
		if row >= hardware.DisplayRows {
			break
		}

		if text == "" {
			continue
		}

		c.display.SetCursor(row, 0)
		c.display.WriteString(text)
	}
}

// waitKey blocks until a key is pressed and debounces it.
func (c *Controller) waitKey(ctx context.Context) (rune, error) {
	for {
		if key, ok := c.keypad.Key(); ok {
			return key, pause(ctx, c.keyDebounce)
		}

		if err := pause(ctx, c.keyPoll); err != nil {
			return 0, err
		}
	}
}

// collectCredential prompts in state and reads exactly lock.CredentialLength digits.
// '#' clears the entry; other keys are ignored.
func (c *Controller) collectCredential(ctx context.Context, state lock.SessionState, prompt string) (lock.Credential, error) {
	c.setState(ctx, state)
	c.show(prompt)
	c.display.SetCursor(1, 0)

	digits := make([]byte, 0, lock.CredentialLength)

	for len(digits) < lock.CredentialLength {
		key, err := c.waitKey(ctx)
		if err != nil {
			return "", err
		}

		switch {
		case key == '#':
			digits = digits[:0]

			c.display.SetCursor(1, 0)
			c.display.WriteString(blankRow)
			c.display.SetCursor(1, 0)
		case key >= '0' && key <= '9':
			c.display.SetCursor(1, len(digits))
			c.display.WriteChar('*')

			digits = append(digits, byte(key))
		}
	}

	return lock.Credential(digits), nil
}

// pause waits for d or until the context ends.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

var blankRow = strings.Repeat(" ", hardware.DisplayColumns)

// IsShutdown reports whether err only means the session was asked to stop.
func IsShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
