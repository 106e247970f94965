package hardware

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	// dialStep moves the dial by roughly one second of timeout per key press.
	dialStep = AnalogMax / 25

	keyQueueSize = 16

	ctrlC = 0x03
)

var errNotTerminal = errors.New("stdin is not a terminal")

// Console is a terminal rendition of the panel hardware: a 16x2 display,
// three LEDs, a keypad read from the keyboard and a dial moved with '[' and ']'.
type Console struct {
	// out receives every rendered frame.
	out io.Writer
	// keys queues pressed keypad keys.
	keys chan rune
	// interrupt is called when Ctrl-C is pressed in raw mode.
	interrupt func()
	// restore puts the terminal back into its original mode.
	restore func() error

	mu   sync.Mutex
	rows [DisplayRows][DisplayColumns]rune
	row  int
	col  int
	leds [3]bool
	dial uint16

	frame lipgloss.Style
	ledOn [3]*color.Color
}

// NewConsole reads keys from in and renders to out.
// interrupt, when not nil, is called on Ctrl-C.
func NewConsole(in io.Reader, out io.Writer, interrupt func()) *Console {
	c := &Console{
		out:       out,
		keys:      make(chan rune, keyQueueSize),
		interrupt: interrupt,
		restore:   func() error { return nil },
		dial:      AnalogMax / 5,
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		ledOn: [3]*color.Color{
			color.New(color.FgRed, color.Bold),
			color.New(color.FgGreen, color.Bold),
			color.New(color.FgBlue, color.Bold),
		},
	}

	c.clearLocked()

	go c.readLoop(in)

	return c
}

// OpenTerminal switches stdin to raw mode and returns a console on stdin/stdout.
func OpenTerminal(interrupt func()) (*Console, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // File descriptors fit in int.
	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	c := NewConsole(os.Stdin, os.Stdout, interrupt)
	c.restore = func() error { return term.Restore(fd, state) }

	c.mu.Lock()
	c.renderLocked()
	c.mu.Unlock()

	return c, nil
}

// Close restores the terminal.
func (c *Console) Close() error {
	return c.restore()
}

// Key returns the next queued key without blocking.
func (c *Console) Key() (rune, bool) {
	select {
	case k := <-c.keys:
		return k, true
	default:
		return 0, false
	}
}

// DiscardPending drops every queued key and returns how many were dropped.
func (c *Console) DiscardPending() int {
	dropped := 0

	for {
		select {
		case <-c.keys:
			dropped++
		default:
			return dropped
		}
	}
}

// ReadRaw returns the dial position.
func (c *Console) ReadRaw() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dial
}

// Clear blanks the display and homes the cursor.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	c.renderLocked()
}

// SetCursor moves the cursor, clamped to the display.
func (c *Console) SetCursor(row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.row = min(max(row, 0), DisplayRows-1)
	c.col = min(max(col, 0), DisplayColumns)
}

// WriteString writes s at the cursor; characters past the last column are dropped.
func (c *Console) WriteString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range s {
		c.putLocked(r)
	}

	c.renderLocked()
}

// WriteChar writes one character at the cursor.
func (c *Console) WriteChar(r rune) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.putLocked(r)
	c.renderLocked()
}

// On lights an LED.
func (c *Console) On(led LED) {
	c.setLED(led, true)
}

// Off darkens an LED.
func (c *Console) Off(led LED) {
	c.setLED(led, false)
}

// AllOff darkens every LED.
func (c *Console) AllOff() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leds = [3]bool{}
	c.renderLocked()
}

// Text returns the current display rows.
func (c *Console) Text() [DisplayRows]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [DisplayRows]string
	for i := range c.rows {
		out[i] = string(c.rows[i][:])
	}

	return out
}

// Lit reports whether an LED is on.
func (c *Console) Lit(led LED) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return int(led) < len(c.leds) && c.leds[led]
}

func (c *Console) setLED(led LED, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int(led) >= len(c.leds) {
		return
	}

	c.leds[led] = on
	c.renderLocked()
}

func (c *Console) clearLocked() {
	for i := range c.rows {
		for j := range c.rows[i] {
			c.rows[i][j] = ' '
		}
	}

	c.row, c.col = 0, 0
}

func (c *Console) putLocked(r rune) {
	if c.col >= DisplayColumns {
		return
	}

	c.rows[c.row][c.col] = r
	c.col++
}

func (c *Console) readLoop(in io.Reader) {
	buf := make([]byte, 16)

	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			c.handleInput(b)
		}

		if err != nil {
			return
		}
	}
}

func (c *Console) handleInput(b byte) {
	switch {
	case b == ctrlC:
		if c.interrupt != nil {
			c.interrupt()
		}
	case b == '[' || b == '-':
		c.moveDial(-dialStep)
	case b == ']' || b == '+':
		c.moveDial(dialStep)
	case b >= '0' && b <= '9', b == '*', b == '#':
		c.queueKey(rune(b))
	case b >= 'a' && b <= 'd':
		c.queueKey(rune(b - 'a' + 'A'))
	case b >= 'A' && b <= 'D':
		c.queueKey(rune(b))
	}
}

func (c *Console) queueKey(k rune) {
	// A full queue drops the key, like a keypad scanned too slowly.
	select {
	case c.keys <- k:
	default:
	}
}

func (c *Console) moveDial(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dial = uint16(min(max(int(c.dial)+delta, 0), AnalogMax)) //nolint:gosec // Clamped to 0..4095.
	c.renderLocked()
}

func (c *Console) renderLocked() {
	lines := make([]string, 0, DisplayRows)
	for i := range c.rows {
		lines = append(lines, string(c.rows[i][:]))
	}

	var ledLine strings.Builder

	for i, on := range c.leds {
		if on {
			ledLine.WriteString(c.ledOn[i].Sprint("●"))
		} else {
			ledLine.WriteString("○")
		}

		ledLine.WriteString(" ")
	}

	frame := c.frame.Render(strings.Join(lines, "\n"))
	status := fmt.Sprintf("%s  dial %4d  [ ] adjust", ledLine.String(), c.dial)

	// Raw mode needs explicit carriage returns.
	screen := strings.ReplaceAll(frame+"\n"+status+"\n", "\n", "\r\n")

	_, _ = io.WriteString(c.out, "\x1b[H\x1b[2J"+screen)
}
