package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// StreamConn carries newline-delimited JSON envelopes over a byte stream,
// e.g. a child process's stdio. A background reader decodes inbound lines.
type StreamConn struct {
	w       io.Writer
	closers []io.Closer

	wmu     sync.Mutex
	inbound *MessageChannel[received]

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

type received struct {
	msg Message
	err error
}

// NewStreamConn starts reading r and returns a Conn writing to w.
// r and w are closed by Close when they implement io.Closer.
func NewStreamConn(r io.Reader, w io.Writer) *StreamConn {
	c := &StreamConn{
		w:       w,
		inbound: NewMessageChannel[received](DefaultPipeBuffer),
	}
	if rc, ok := r.(io.Closer); ok {
		c.closers = append(c.closers, rc)
	}
	if wc, ok := w.(io.Closer); ok && any(wc) != any(r) {
		c.closers = append(c.closers, wc)
	}
	go c.readLoop(r)
	return c
}

// Send encodes m and writes it as one line. The peer closing its end of
// the stream does not stop Send; only Close or a write error does.
func (c *StreamConn) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrClosed
	}
	b, err := Marshal(m)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.w.Write(b); err != nil {
		return fmt.Errorf("protocol: write %s: %w", m.Tag(), err)
	}
	return nil
}

// Receive returns the next decoded message. A malformed line yields its
// decode error; later lines are still delivered.
func (c *StreamConn) Receive(ctx context.Context) (Message, error) {
	r, err := c.inbound.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return r.msg, r.err
}

// Close closes the underlying stream.
func (c *StreamConn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.inbound.Close()
		var errs []error
		for _, cl := range c.closers {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

func (c *StreamConn) readLoop(r io.Reader) {
	defer c.inbound.Close()

	br := bufio.NewReader(r)
	ctx := context.Background()
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 && !isBlank(line) {
			msg, decodeErr := Unmarshal(line)
			if sendErr := c.inbound.Send(ctx, received{msg: msg, err: decodeErr}); sendErr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func isBlank(line []byte) bool {
	for _, b := range line {
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			return false
		}
	}
	return true
}

var _ Conn = (*StreamConn)(nil)
