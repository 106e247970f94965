package protocol

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/oshokin/door-lock/internal/domain/lock"
)

// Verb is the command keyword before the colon.
type Verb string

const (
	// VerbStatus asks whether a credential has been configured.
	VerbStatus Verb = "STS"
	// VerbSet stores a new credential.
	VerbSet Verb = "SET"
	// VerbCheck verifies a credential without side effects.
	VerbCheck Verb = "CHK"
	// VerbUnlock verifies a credential and runs the unlock cycle.
	VerbUnlock Verb = "PWD"
	// VerbAlarm sounds the alarm pattern.
	VerbAlarm Verb = "ALM"
	// VerbSetTimeout stores the unlock hold time.
	VerbSetTimeout Verb = "TMO"
)

// LineTerminator ends every command on the wire.
const LineTerminator = '\n'

var (
	// ErrEmptyLine is returned for lines with nothing but whitespace.
	ErrEmptyLine = errors.New("empty line")
	// ErrUnknownCommand is returned when the verb is not one of the known commands.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingPayload is returned when a payload verb arrives without a colon.
	ErrMissingPayload = errors.New("command requires a payload")
)

// Command is a parsed protocol line.
type Command struct {
	// Verb identifies the operation.
	Verb Verb
	// Payload holds the digits that followed the colon, non-digits removed.
	Payload string
}

// Status builds an STS command.
func Status() Command { return Command{Verb: VerbStatus} }

// Set builds a SET command.
func Set(c lock.Credential) Command { return Command{Verb: VerbSet, Payload: string(c)} }

// Check builds a CHK command.
func Check(c lock.Credential) Command { return Command{Verb: VerbCheck, Payload: string(c)} }

// Unlock builds a PWD command.
func Unlock(c lock.Credential) Command { return Command{Verb: VerbUnlock, Payload: string(c)} }

// Alarm builds an ALM command.
func Alarm() Command { return Command{Verb: VerbAlarm} }

// SetTimeout builds a TMO command.
func SetTimeout(t lock.Timeout) Command {
	return Command{Verb: VerbSetTimeout, Payload: strconv.Itoa(int(t))}
}

// HasPayload reports whether the verb carries digits after a colon.
func (v Verb) HasPayload() bool {
	switch v {
	case VerbSet, VerbCheck, VerbUnlock, VerbSetTimeout:
		return true
	default:
		return false
	}
}

func (v Verb) known() bool {
	switch v {
	case VerbStatus, VerbSet, VerbCheck, VerbUnlock, VerbAlarm, VerbSetTimeout:
		return true
	default:
		return false
	}
}

// ExpectsResponse reports whether the control node answers the verb with a byte.
func (v Verb) ExpectsResponse() bool {
	return v != VerbAlarm
}

// Parse tokenizes one line (without its terminator).
// The verb is everything before the first colon and must match exactly;
// every digit after the colon becomes payload, other characters are dropped.
func Parse(line []byte) (Command, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Command{}, ErrEmptyLine
	}

	head, tail, hasColon := bytes.Cut(line, []byte{':'})

	verb := Verb(bytes.TrimSpace(head))
	if !verb.known() {
		return Command{}, ErrUnknownCommand
	}

	if !verb.HasPayload() {
		return Command{Verb: verb}, nil
	}

	if !hasColon {
		return Command{}, ErrMissingPayload
	}

	payload := make([]byte, 0, len(tail))

	for _, c := range tail {
		if c >= '0' && c <= '9' {
			payload = append(payload, c)
		}
	}

	return Command{Verb: verb, Payload: string(payload)}, nil
}

// Encode renders the command as a terminated wire line.
func (c Command) Encode() []byte {
	out := make([]byte, 0, len(c.Verb)+len(c.Payload)+2)
	out = append(out, c.Verb...)

	if c.Verb.HasPayload() {
		out = append(out, ':')
		out = append(out, c.Payload...)
	}

	return append(out, LineTerminator)
}

// Credential interprets the payload as a credential.
func (c Command) Credential() (lock.Credential, error) {
	return lock.ParseCredential(c.Payload)
}

// Timeout interprets the payload as a timeout in seconds.
func (c Command) Timeout() (lock.Timeout, error) {
	if c.Payload == "" {
		return 0, lock.ErrTimeoutOutOfRange
	}

	digits := strings.TrimLeft(c.Payload, "0")
	if digits == "" {
		digits = "0"
	}

	// Longer values are far out of range and may not fit an int.
	if len(digits) > 3 {
		return 0, lock.ErrTimeoutOutOfRange
	}

	seconds, err := strconv.Atoi(digits)
	if err != nil {
		return 0, lock.ErrTimeoutOutOfRange
	}

	return lock.ParseTimeout(seconds)
}

// String renders the command for logs with credential digits masked.
func (c Command) String() string {
	switch c.Verb {
	case VerbSet, VerbCheck, VerbUnlock:
		return string(c.Verb) + ":*****"
	case VerbSetTimeout:
		return string(c.Verb) + ":" + c.Payload
	default:
		return string(c.Verb)
	}
}
