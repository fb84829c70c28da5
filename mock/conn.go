package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fwojciec/relay"
)

// Conn is a scripted response body. Bytes written by the test are returned
// by Read in order; Write blocks until the reader takes them. Like a
// net/http body, a pending Read fails once the context given to Open is
// done.
type Conn struct {
	r *io.PipeReader
	w *io.PipeWriter

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConn returns an open Conn.
func NewConn() *Conn {
	r, w := io.Pipe()
	return &Conn{r: r, w: w, closed: make(chan struct{})}
}

// Open returns the body to hand to the driver, bound to ctx.
func (c *Conn) Open(ctx context.Context) io.ReadCloser {
	go func() {
		select {
		case <-ctx.Done():
			_ = c.r.CloseWithError(ctx.Err())
		case <-c.closed:
		}
	}()
	return body{c}
}

// Issuer returns an Issuer whose every call opens c.
func (c *Conn) Issuer() *Issuer {
	return &Issuer{IssueFn: func(ctx context.Context, _ relay.Call) (io.ReadCloser, error) {
		return c.Open(ctx), nil
	}}
}

// Send writes s to the body. It returns an error once the body is closed.
func (c *Conn) Send(s string) error {
	_, err := c.w.Write([]byte(s))
	return err
}

// End closes the stream cleanly: Read returns io.EOF after buffered data.
func (c *Conn) End() error { return c.w.Close() }

// Fail breaks the connection: Read returns err.
func (c *Conn) Fail(err error) error { return c.w.CloseWithError(err) }

// Closed is closed once the driver closes the body.
func (c *Conn) Closed() <-chan struct{} { return c.closed }

type body struct{ c *Conn }

func (b body) Read(p []byte) (int, error) { return b.c.r.Read(p) }

func (b body) Close() error {
	b.c.closeOnce.Do(func() { close(b.c.closed) })
	return b.c.r.Close()
}
