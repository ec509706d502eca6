package protocol

import "context"

// Conn is one endpoint of a host/sandbox boundary.
// Send and Receive may be called concurrently with each other.
type Conn interface {
	// Send delivers m to the peer.
	Send(ctx context.Context, m Message) error

	// Receive returns the next message from the peer.
	// Returns ErrClosed once the boundary is closed and drained.
	Receive(ctx context.Context) (Message, error)

	// Close tears down the boundary for both endpoints.
	Close() error
}

// DefaultPipeBuffer is the per-direction buffer used when Pipe is given a
// non-positive size.
const DefaultPipeBuffer = 16

type pipeEnd struct {
	in  *MessageChannel[Message]
	out *MessageChannel[Message]
}

// Pipe returns the two endpoints of an in-process boundary, one typed
// channel per direction.
func Pipe(buffer int) (host, sandbox Conn) {
	if buffer <= 0 {
		buffer = DefaultPipeBuffer
	}
	toSandbox := NewMessageChannel[Message](buffer)
	toHost := NewMessageChannel[Message](buffer)
	return &pipeEnd{in: toHost, out: toSandbox}, &pipeEnd{in: toSandbox, out: toHost}
}

func (p *pipeEnd) Send(ctx context.Context, m Message) error {
	return p.out.Send(ctx, m)
}

func (p *pipeEnd) Receive(ctx context.Context) (Message, error) {
	return p.in.Receive(ctx)
}

func (p *pipeEnd) Close() error {
	p.out.Close()
	p.in.Close()
	return nil
}
