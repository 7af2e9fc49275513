package logging

import (
	"bytes"
	"io"
	"sync"
)

// Deferred writes through to its target except while held, when output is
// kept back until Release. The CLI holds its log output while the terminal
// is in raw mode.
type Deferred struct {
	mu   sync.Mutex
	w    io.Writer
	buf  bytes.Buffer
	held bool
}

// NewDeferred returns a Deferred writing to w
func NewDeferred(w io.Writer) *Deferred {
	return &Deferred{w: w}
}

func (d *Deferred) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.held {
		return d.buf.Write(p)
	}
	return d.w.Write(p)
}

// Hold starts keeping output back
func (d *Deferred) Hold() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held = true
}

// Release writes everything kept back since Hold and resumes writing through
func (d *Deferred) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.held = false
	_, err := d.buf.WriteTo(d.w)
	return err
}
