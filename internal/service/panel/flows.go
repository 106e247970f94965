package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/protocol"
)

// How long each message stays on the display.
const (
	bannerDelay      = time.Second
	welcomeDelay     = time.Second
	loginFailDelay   = 2 * time.Second
	setupDoneDelay   = time.Second
	mismatchDelay    = 2 * time.Second
	grantedDelay     = 3 * time.Second
	tryAgainDelay    = 1500 * time.Millisecond
	passChangedDelay = 2 * time.Second
	confirmDelay     = time.Second
	timeoutSaveDelay = 1500 * time.Millisecond
)

// strikeFlow is a credential check that locks the panel out after MaxAttempts rejections.
type strikeFlow struct {
	state    lock.SessionState
	verb     protocol.Verb
	prompt   string
	busy     string
	rejected []string
	verify   func(ctx context.Context, credential lock.Credential) (protocol.Response, error)
}

// login asks for the credential until the control node accepts it. There is no attempt limit.
func (c *Controller) login(ctx context.Context) error {
	for {
		credential, err := c.collectCredential(ctx, lock.StateLogin, "Enter Password:")
		if err != nil {
			return err
		}

		c.show("Processing...")

		accepted, err := c.request(ctx, protocol.VerbCheck, func(ctx context.Context) (protocol.Response, error) {
			return c.client.CheckCredential(ctx, credential)
		})
		if err != nil {
			return err
		}

		if accepted {
			logger.Info(ctx, "Operator logged in")

			return c.feedback(ctx, hardware.LEDGreen, welcomeDelay, "Welcome Back!")
		}

		logger.Warn(ctx, "Login rejected")

		if err = c.feedback(ctx, hardware.LEDRed, loginFailDelay, "Wrong Password"); err != nil {
			return err
		}
	}
}

// setup asks for a first credential twice and stores it.
// A mismatch re-prompts without contacting the control node.
func (c *Controller) setup(ctx context.Context) error {
	for {
		credential, matched, err := c.collectTwice(ctx,
			lock.StateSetup, "Enter Password:",
			lock.StateSetup, "Re-enter to Set:")
		if err != nil {
			return err
		}

		if !matched {
			continue
		}

		stored, err := c.request(ctx, protocol.VerbSet, func(ctx context.Context) (protocol.Response, error) {
			return c.client.SetCredential(ctx, credential)
		})
		if err != nil {
			return err
		}

		if stored {
			logger.Info(ctx, "Initial credential stored")

			return c.feedback(ctx, hardware.LEDGreen, setupDoneDelay, "Setup Complete!")
		}

		logger.Warn(ctx, "Initial credential was not stored")

		if err = c.feedback(ctx, hardware.LEDRed, setupDoneDelay, "Setup Failed!"); err != nil {
			return err
		}
	}
}

// OpenDoor asks the control node to unlock with a typed credential, with the three-strike policy.
func (c *Controller) OpenDoor(ctx context.Context) error {
	opened, err := c.verifyWithLockout(ctx, strikeFlow{
		state:    lock.StateAwaitingOpenPassword,
		verb:     protocol.VerbUnlock,
		prompt:   "Enter Password:",
		busy:     "Verifying...",
		rejected: []string{"Wrong Password", "Try Again"},
		verify:   c.client.OpenDoor,
	})
	if err != nil || !opened {
		return err
	}

	logger.Info(ctx, "Door unlocking")

	return c.feedback(ctx, hardware.LEDGreen, grantedDelay, "Access Granted", "Door Unlocking")
}

// ChangePassword verifies the current credential with the three-strike policy
// and then replaces it. The new credential must be typed twice.
func (c *Controller) ChangePassword(ctx context.Context) error {
	verified, err := c.verifyWithLockout(ctx, strikeFlow{
		state:    lock.StateAwaitingOldPassword,
		verb:     protocol.VerbCheck,
		prompt:   "Enter Old Pass:",
		busy:     "Checking...",
		rejected: []string{"Wrong Old Pass"},
		verify:   c.client.CheckCredential,
	})
	if err != nil || !verified {
		return err
	}

	for {
		credential, matched, err := c.collectTwice(ctx,
			lock.StateAwaitingNewPassword, "Enter New Pass:",
			lock.StateAwaitingNewPasswordConfirm, "Confirm New:")
		if err != nil {
			return err
		}

		if !matched {
			continue
		}

		c.show("Saving...")

		stored, err := c.request(ctx, protocol.VerbSet, func(ctx context.Context) (protocol.Response, error) {
			return c.client.SetCredential(ctx, credential)
		})
		if err != nil {
			return err
		}

		if stored {
			logger.Info(ctx, "Credential changed")

			return c.feedback(ctx, hardware.LEDGreen, passChangedDelay, "Pass Changed!")
		}

		logger.Warn(ctx, "New credential was not stored")

		if err = c.feedback(ctx, hardware.LEDRed, passChangedDelay, "Save Error!"); err != nil {
			return err
		}
	}
}

// SetTimeout lets the operator pick the unlock hold time on the dial and stores it
// after a single credential check. A rejected check aborts without counting a strike.
func (c *Controller) SetTimeout(ctx context.Context) error {
	timeout, err := c.adjustTimeout(ctx)
	if err != nil {
		return err
	}

	c.show("Confirm w/ Pass:")

	if err = pause(ctx, confirmDelay); err != nil {
		return err
	}

	credential, err := c.collectCredential(ctx, lock.StateAwaitingTimeoutPassword, "Enter Password:")
	if err != nil {
		return err
	}

	verified, err := c.request(ctx, protocol.VerbCheck, func(ctx context.Context) (protocol.Response, error) {
		return c.client.CheckCredential(ctx, credential)
	})
	if err != nil {
		return err
	}

	if !verified {
		logger.Warn(ctx, "Timeout change rejected")

		return c.feedback(ctx, hardware.LEDRed, timeoutSaveDelay, "Wrong Password")
	}

	saved, err := c.request(ctx, protocol.VerbSetTimeout, func(ctx context.Context) (protocol.Response, error) {
		return c.client.SetTimeout(ctx, timeout)
	})
	if err != nil {
		return err
	}

	if !saved {
		logger.WarnKV(ctx, "Timeout was not stored", "seconds", uint8(timeout))

		return c.feedback(ctx, hardware.LEDRed, timeoutSaveDelay, "Save Error!")
	}

	logger.InfoKV(ctx, "Timeout changed", "seconds", uint8(timeout))

	return c.feedback(ctx, hardware.LEDGreen, timeoutSaveDelay, "Timeout Saved!")
}

// adjustTimeout renders the dial value until '#' confirms it.
func (c *Controller) adjustTimeout(ctx context.Context) (lock.Timeout, error) {
	c.setState(ctx, lock.StateAdjustingTimeout)
	c.show("Adjust Timeout:")

	for {
		timeout := lock.TimeoutFromDial(c.dial.ReadRaw())

		c.display.SetCursor(1, 0)
		c.display.WriteString(fmt.Sprintf("%-*s", hardware.DisplayColumns, fmt.Sprintf("%d Seconds", timeout)))

		if key, ok := c.keypad.Key(); ok && key == '#' {
			return timeout, pause(ctx, c.keyDebounce)
		}

		if err := pause(ctx, c.dialRefresh); err != nil {
			return 0, err
		}
	}
}

// verifyWithLockout collects and verifies credentials until one is accepted or
// MaxAttempts are rejected. The last rejection sounds the alarm and waits out the cooldown.
func (c *Controller) verifyWithLockout(ctx context.Context, flow strikeFlow) (bool, error) {
	for attempt := 1; ; attempt++ {
		credential, err := c.collectCredential(ctx, flow.state, flow.prompt)
		if err != nil {
			return false, err
		}

		c.show(flow.busy)

		accepted, err := c.request(ctx, flow.verb, func(ctx context.Context) (protocol.Response, error) {
			return flow.verify(ctx, credential)
		})
		if err != nil {
			return false, err
		}

		if accepted {
			return true, nil
		}

		logger.WarnKV(ctx, "Credential rejected", "state", flow.state.String(), "attempt", attempt)

		if flow.state.AllowsLockout() && attempt >= MaxAttempts {
			return false, c.lockout(ctx)
		}

		if err = c.feedback(ctx, hardware.LEDRed, tryAgainDelay, flow.rejected...); err != nil {
			return false, err
		}
	}
}

// collectTwice reads a credential and its confirmation and reports whether they match.
// A mismatch is shown to the operator before returning.
func (c *Controller) collectTwice(
	ctx context.Context,
	firstState lock.SessionState, firstPrompt string,
	secondState lock.SessionState, secondPrompt string,
) (lock.Credential, bool, error) {
	first, err := c.collectCredential(ctx, firstState, firstPrompt)
	if err != nil {
		return "", false, err
	}

	second, err := c.collectCredential(ctx, secondState, secondPrompt)
	if err != nil {
		return "", false, err
	}

	if !first.Equal(second) {
		logger.Warn(ctx, "Credential entries do not match")

		return "", false, c.feedback(ctx, hardware.LEDRed, mismatchDelay, "Mismatch!")
	}

	return first, true, nil
}
