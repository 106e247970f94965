package panel

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/protocol"
)

// scriptedKeypad hands out queued keys one at a time.
type scriptedKeypad struct {
	mu   sync.Mutex
	keys []rune
}

func (k *scriptedKeypad) Key() (rune, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return 0, false
	}

	key := k.keys[0]
	k.keys = k.keys[1:]

	return key, true
}

func (k *scriptedKeypad) press(sequences ...string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, s := range sequences {
		k.keys = append(k.keys, []rune(s)...)
	}
}

// recordingDisplay keeps every string written to it.
type recordingDisplay struct {
	mu     sync.Mutex
	writes []string
	stars  int
}

func (d *recordingDisplay) Clear() {}
func (d *recordingDisplay) SetCursor(_, _ int) {}

func (d *recordingDisplay) WriteString(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.writes = append(d.writes, strings.TrimSpace(s))
}

func (d *recordingDisplay) WriteChar(c rune) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c == '*' {
		d.stars++
	}
}

func (d *recordingDisplay) shown(text string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0

	for _, w := range d.writes {
		if w == text {
			count++
		}
	}

	return count
}

// fixedDial always reports the same raw sample.
type fixedDial uint16

func (f fixedDial) ReadRaw() uint16 { return uint16(f) }

// recordingLEDs remembers which LEDs were ever lit.
type recordingLEDs struct {
	mu  sync.Mutex
	lit map[hardware.LED]int
	on  map[hardware.LED]bool
}

func newRecordingLEDs() *recordingLEDs {
	return &recordingLEDs{lit: make(map[hardware.LED]int), on: make(map[hardware.LED]bool)}
}

func (l *recordingLEDs) On(led hardware.LED) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lit[led]++
	l.on[led] = true
}

func (l *recordingLEDs) Off(led hardware.LED) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.on[led] = false
}

func (l *recordingLEDs) AllOff() {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.on)
}

func (l *recordingLEDs) count(led hardware.LED) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lit[led]
}

// sentCommand is one request seen by the fake client.
type sentCommand struct {
	verb    protocol.Verb
	payload string
	at      time.Time
}

// fakeClient answers from per-verb queues and records every request.
// An empty queue answers protocol.NoResponse.
type fakeClient struct {
	mu         sync.Mutex
	answers    map[protocol.Verb][]protocol.Response
	status     []error
	configured bool
	sent       []sentCommand
}

func newFakeClient() *fakeClient {
	return &fakeClient{answers: make(map[protocol.Verb][]protocol.Response)}
}

func (f *fakeClient) answer(verb protocol.Verb, responses ...protocol.Response) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.answers[verb] = append(f.answers[verb], responses...)
}

func (f *fakeClient) record(verb protocol.Verb, payload string) protocol.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentCommand{verb: verb, payload: payload, at: time.Now()})

	queue := f.answers[verb]
	if len(queue) == 0 {
		return protocol.NoResponse
	}

	f.answers[verb] = queue[1:]

	return queue[0]
}

func (f *fakeClient) commands(verb protocol.Verb) []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentCommand

	for _, c := range f.sent {
		if c.verb == verb {
			out = append(out, c)
		}
	}

	return out
}

func (f *fakeClient) Status(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentCommand{verb: protocol.VerbStatus, at: time.Now()})

	if len(f.status) > 0 {
		err := f.status[0]
		f.status = f.status[1:]

		if err != nil {
			return false, err
		}
	}

	return f.configured, nil
}

func (f *fakeClient) SetCredential(_ context.Context, c lock.Credential) (protocol.Response, error) {
	return f.record(protocol.VerbSet, string(c)), nil
}

func (f *fakeClient) CheckCredential(_ context.Context, c lock.Credential) (protocol.Response, error) {
	return f.record(protocol.VerbCheck, string(c)), nil
}

func (f *fakeClient) OpenDoor(_ context.Context, c lock.Credential) (protocol.Response, error) {
	return f.record(protocol.VerbUnlock, string(c)), nil
}

func (f *fakeClient) SetTimeout(_ context.Context, t lock.Timeout) (protocol.Response, error) {
	return f.record(protocol.VerbSetTimeout, protocol.SetTimeout(t).Payload), nil
}

func (f *fakeClient) SoundAlarm(_ context.Context) error {
	f.record(protocol.VerbAlarm, "")

	return nil
}

// harness bundles a controller with its fakes.
type harness struct {
	controller *Controller
	client     *fakeClient
	keypad     *scriptedKeypad
	display    *recordingDisplay
	leds       *recordingLEDs
}

func newHarness(dial uint16, opts ...Option) *harness {
	h := &harness{
		client:  newFakeClient(),
		keypad:  new(scriptedKeypad),
		display: new(recordingDisplay),
		leds:    newRecordingLEDs(),
	}

	h.controller = NewController(h.client, Devices{
		Keypad:  h.keypad,
		Display: h.display,
		Dial:    fixedDial(dial),
		LEDs:    h.leds,
	}, opts...)

	return h
}
