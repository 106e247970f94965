package protocol

// LineBufferSize is the capacity of the control node's receive buffer,
// terminator included.
const LineBufferSize = 32

// PushResult tells the caller what a pushed byte did to the buffer.
type PushResult uint8

const (
	// PushPending means the byte was stored and the line is not complete yet.
	PushPending PushResult = iota
	// PushComplete means a terminator arrived and a line is ready.
	PushComplete
	// PushOverflow means the buffer was full; its contents and the byte were dropped.
	PushOverflow
)

// LineBuffer accumulates bytes until a line terminator arrives.
// The zero value is ready to use.
type LineBuffer struct {
	buf [LineBufferSize]byte
	n   int
}

// Push adds one byte. On PushComplete the returned slice holds the line
// without its terminator and stays valid after further pushes.
func (b *LineBuffer) Push(c byte) ([]byte, PushResult) {
	// One slot is always kept for the terminator.
	if b.n >= LineBufferSize-1 {
		b.Reset()

		return nil, PushOverflow
	}

	if c == '\n' || c == '\r' {
		line := make([]byte, b.n)
		copy(line, b.buf[:b.n])
		b.Reset()

		return line, PushComplete
	}

	b.buf[b.n] = c
	b.n++

	return nil, PushPending
}

// Len returns the number of buffered bytes.
func (b *LineBuffer) Len() int {
	return b.n
}

// Reset drops any buffered bytes.
func (b *LineBuffer) Reset() {
	clear(b.buf[:])
	b.n = 0
}
