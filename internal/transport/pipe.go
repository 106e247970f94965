package transport

import (
	"errors"
	"io"
)

// pipeEnd joins the read side of one io.Pipe with the write side of another.
type pipeEnd struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeEnd) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeEnd) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeEnd) Close() error {
	return errors.Join(p.w.Close(), p.r.Close())
}

// Pipe returns two links connected back to back, like a null-modem cable.
// Writes block until the peer's reader goroutine takes the bytes.
func Pipe() (*Link, *Link) {
	aToB, aWriter := io.Pipe()
	bToA, bWriter := io.Pipe()

	a := &pipeEnd{r: bToA, w: aWriter}
	b := &pipeEnd{r: aToB, w: bWriter}

	return NewLink(a), NewLink(b)
}
