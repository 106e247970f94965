package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// receiveQueueSize bounds the bytes buffered between the reader goroutine and the caller.
const receiveQueueSize = 256

// ErrClosed is returned after the link or its underlying port has been closed.
var ErrClosed = errors.New("link closed")

// Link is a byte-oriented view of a serial channel.
type Link struct {
	// port is the underlying byte stream.
	port io.ReadWriteCloser
	// incoming carries bytes from the reader goroutine.
	incoming chan byte
	// done is closed when the link is closed locally.
	done chan struct{}
	// failed is closed when the reader goroutine stops.
	failed chan struct{}
	// readErr is the error that stopped the reader goroutine.
	readErr error
	// writeMu serialises writers so lines are never interleaved.
	writeMu sync.Mutex
	// closeOnce guards Close.
	closeOnce sync.Once
}

// NewLink wraps port and starts reading from it.
func NewLink(port io.ReadWriteCloser) *Link {
	l := &Link{
		port:     port,
		incoming: make(chan byte, receiveQueueSize),
		done:     make(chan struct{}),
		failed:   make(chan struct{}),
	}

	go l.readLoop()

	return l
}

// SendByte writes a single byte.
func (l *Link) SendByte(b byte) error {
	return l.Send([]byte{b})
}

// SendString writes s as-is.
func (l *Link) SendString(s string) error {
	return l.Send([]byte(s))
}

// Send writes data in one piece.
func (l *Link) Send(data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	if _, err := l.port.Write(data); err != nil {
		return fmt.Errorf("write link: %w", err)
	}

	return nil
}

// ReceiveByte blocks until a byte arrives, the context ends or the link fails.
func (l *Link) ReceiveByte(ctx context.Context) (byte, error) {
	select {
	case b := <-l.incoming:
		return b, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-l.failed:
		// Bytes read before the failure are still delivered.
		select {
		case b := <-l.incoming:
			return b, nil
		default:
		}

		return 0, l.failure()
	}
}

// Available returns the number of received bytes not yet consumed.
func (l *Link) Available() int {
	return len(l.incoming)
}

// Flush discards every received byte not yet consumed and returns how many were dropped.
func (l *Link) Flush() int {
	dropped := 0

	for {
		select {
		case <-l.incoming:
			dropped++
		default:
			return dropped
		}
	}
}

// Close stops the link and closes the underlying port.
func (l *Link) Close() error {
	var err error

	l.closeOnce.Do(func() {
		close(l.done)
		err = l.port.Close()
	})

	return err
}

func (l *Link) readLoop() {
	defer close(l.failed)

	buf := make([]byte, 64)

	for {
		n, err := l.port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case l.incoming <- b:
			case <-l.done:
				l.readErr = ErrClosed
				return
			}
		}

		if err != nil {
			l.readErr = err
			return
		}
	}
}

// failure is only called after failed is closed, so readErr is stable.
func (l *Link) failure() error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	if errors.Is(l.readErr, io.EOF) || errors.Is(l.readErr, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %w", ErrClosed, l.readErr)
	}

	return fmt.Errorf("read link: %w", l.readErr)
}
