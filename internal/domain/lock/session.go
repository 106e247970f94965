package lock

// SessionState is the state of the operator panel state machine.
type SessionState uint8

const (
	// StateStartup is the state before the control node answered the status query.
	StateStartup SessionState = iota
	// StateLogin asks for the existing credential.
	StateLogin
	// StateSetup asks for a first credential twice.
	StateSetup
	// StateMenuIdle waits for a menu key.
	StateMenuIdle
	// StateAwaitingOpenPassword collects the credential to open the door.
	StateAwaitingOpenPassword
	// StateAwaitingOldPassword collects the current credential before a change.
	StateAwaitingOldPassword
	// StateAwaitingNewPassword collects the replacement credential.
	StateAwaitingNewPassword
	// StateAwaitingNewPasswordConfirm collects the replacement credential again.
	StateAwaitingNewPasswordConfirm
	// StateAdjustingTimeout renders the live dial value until it is confirmed.
	StateAdjustingTimeout
	// StateAwaitingTimeoutPassword collects the credential that authorises a timeout change.
	StateAwaitingTimeoutPassword
	// StateLockout blocks the panel after three rejected attempts.
	StateLockout
)

// String returns a readable name for logs.
func (s SessionState) String() string {
	switch s {
	case StateStartup:
		return "startup"
	case StateLogin:
		return "login"
	case StateSetup:
		return "setup"
	case StateMenuIdle:
		return "menu_idle"
	case StateAwaitingOpenPassword:
		return "awaiting_open_password"
	case StateAwaitingOldPassword:
		return "awaiting_old_password"
	case StateAwaitingNewPassword:
		return "awaiting_new_password"
	case StateAwaitingNewPasswordConfirm:
		return "awaiting_new_password_confirm"
	case StateAdjustingTimeout:
		return "adjusting_timeout"
	case StateAwaitingTimeoutPassword:
		return "awaiting_timeout_password"
	case StateLockout:
		return "lockout"
	default:
		return "unknown"
	}
}

// AllowsLockout reports whether three rejections in this state lead to StateLockout.
func (s SessionState) AllowsLockout() bool {
	return s == StateAwaitingOpenPassword || s == StateAwaitingOldPassword
}
