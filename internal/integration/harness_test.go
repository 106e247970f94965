package integration

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/repository/store"
	"github.com/oshokin/door-lock/internal/service/actuator"
	"github.com/oshokin/door-lock/internal/service/common"
	"github.com/oshokin/door-lock/internal/service/control"
	"github.com/oshokin/door-lock/internal/service/panel"
	"github.com/oshokin/door-lock/internal/transport"
)

// wireLine is one complete command line seen by the control node.
type wireLine struct {
	text string
	at   time.Time
}

// wireTap records every line the control node reads from its link.
type wireTap struct {
	link *transport.Link

	mu      sync.Mutex
	partial bytes.Buffer
	lines   []wireLine
}

func (w *wireTap) ReceiveByte(ctx context.Context) (byte, error) {
	b, err := w.link.ReceiveByte(ctx)
	if err != nil {
		return b, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if b == '\n' || b == '\r' {
		w.lines = append(w.lines, wireLine{text: w.partial.String(), at: time.Now()})
		w.partial.Reset()
	} else {
		w.partial.WriteByte(b)
	}

	return b, nil
}

func (w *wireTap) SendByte(b byte) error { return w.link.SendByte(b) }

func (w *wireTap) Flush() int { return w.link.Flush() }

func (w *wireTap) seen() []wireLine {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]wireLine(nil), w.lines...)
}

func (w *wireTap) texts() []string {
	lines := w.seen()
	out := make([]string, 0, len(lines))

	for _, l := range lines {
		out = append(out, l.text)
	}

	return out
}

// motorMove is one commanded motor direction.
type motorMove struct {
	direction hardware.Direction
	at        time.Time
}

// recordingMotor remembers every drive command with its time.
type recordingMotor struct {
	mu    sync.Mutex
	moves []motorMove
}

func (m *recordingMotor) Drive(_ context.Context, direction hardware.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.moves = append(m.moves, motorMove{direction: direction, at: time.Now()})

	return nil
}

func (m *recordingMotor) recorded() []motorMove {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]motorMove(nil), m.moves...)
}

// countingBuzzer counts pulses.
type countingBuzzer struct {
	mu     sync.Mutex
	pulses int
}

func (b *countingBuzzer) Set(_ context.Context, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if on {
		b.pulses++
	}

	return nil
}

func (b *countingBuzzer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pulses
}

// controlNode is a running engine with real sequencing on recording drivers.
type controlNode struct {
	repo   *store.ImageRepository
	motor  *recordingMotor
	buzzer *countingBuzzer
	tap    *wireTap
	client *common.Client

	panelLink   *transport.Link
	controlLink *transport.Link
	cancel      context.CancelFunc
	done        chan error
}

// startControlNode serves repo on one end of a pipe and returns a panel client on the other.
func startControlNode(t *testing.T, repo *store.ImageRepository) *controlNode {
	t.Helper()

	panelLink, controlLink := transport.Pipe()

	n := &controlNode{
		repo:        repo,
		motor:       new(recordingMotor),
		buzzer:      new(countingBuzzer),
		tap:         &wireTap{link: controlLink},
		client:      common.NewClient(panelLink),
		panelLink:   panelLink,
		controlLink: controlLink,
		done:        make(chan error, 1),
	}

	engine := control.NewEngine(n.tap, repo, actuator.New(n.motor, n.buzzer))

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	go func() {
		n.done <- engine.Serve(ctx)
	}()

	return n
}

// stop shuts the engine down and waits for it.
func (n *controlNode) stop(t *testing.T) {
	t.Helper()

	n.cancel()

	_ = n.panelLink.Close()
	_ = n.controlLink.Close()

	require.NoError(t, <-n.done)
}

func freshRepo(t *testing.T) *store.ImageRepository {
	t.Helper()

	repo := store.NewMemoryRepository()
	require.NoError(t, repo.Init(context.Background()))

	return repo
}

func configuredRepo(t *testing.T, credential lock.Credential, timeout lock.Timeout) *store.ImageRepository {
	t.Helper()

	ctx := context.Background()
	repo := freshRepo(t)

	require.NoError(t, repo.WriteCredential(ctx, credential))
	require.NoError(t, repo.WriteTimeout(ctx, timeout))
	require.NoError(t, repo.MarkConfigured(ctx))

	return repo
}

// keypad hands out queued keys.
type keypad struct {
	mu   sync.Mutex
	keys []rune
}

func newKeypad(sequences ...string) *keypad {
	k := new(keypad)

	for _, s := range sequences {
		k.keys = append(k.keys, []rune(s)...)
	}

	return k
}

func (k *keypad) Key() (rune, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return 0, false
	}

	key := k.keys[0]
	k.keys = k.keys[1:]

	return key, true
}

// Panel peripherals that ignore output and report a fixed dial.
type (
	blindDisplay struct{}
	darkLEDs     struct{}
	centredDial  struct{}
)

func (blindDisplay) Clear() {}
func (blindDisplay) SetCursor(_, _ int) {}
func (blindDisplay) WriteString(_ string) {}
func (blindDisplay) WriteChar(_ rune) {}

func (darkLEDs) On(_ hardware.LED) {}
func (darkLEDs) Off(_ hardware.LED) {}
func (darkLEDs) AllOff() {}

func (centredDial) ReadRaw() uint16 { return hardware.AnalogMax / 2 }

func devices(k *keypad) panel.Devices {
	return panel.Devices{
		Keypad:  k,
		Display: blindDisplay{},
		Dial:    centredDial{},
		LEDs:    darkLEDs{},
	}
}
