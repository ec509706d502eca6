package protocol

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when sending on or receiving from a closed connection.
var ErrClosed = errors.New("protocol: connection closed")

// MessageChannel is a buffered, closable, context-aware queue for one
// direction of a boundary. Messages queued before Close are still delivered.
type MessageChannel[T any] struct {
	channel    chan T
	done       chan struct{}
	closeOnce  sync.Once
	bufferSize int
}

// NewMessageChannel creates a channel holding up to bufferSize pending messages.
func NewMessageChannel[T any](bufferSize int) *MessageChannel[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &MessageChannel[T]{
		channel:    make(chan T, bufferSize),
		done:       make(chan struct{}),
		bufferSize: bufferSize,
	}
}

// Send queues message, blocking while the buffer is full.
func (mc *MessageChannel[T]) Send(ctx context.Context, message T) error {
	select {
	case <-mc.done:
		return ErrClosed
	default:
	}

	select {
	case mc.channel <- message:
		return nil
	case <-mc.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next message, blocking until one arrives.
func (mc *MessageChannel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case message := <-mc.channel:
		return message, nil
	default:
	}

	select {
	case message := <-mc.channel:
		return message, nil
	case <-mc.done:
		select {
		case message := <-mc.channel:
			return message, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops further sends. Safe to call more than once.
func (mc *MessageChannel[T]) Close() {
	mc.closeOnce.Do(func() {
		close(mc.done)
	})
}

// IsClosed reports whether Close has been called.
func (mc *MessageChannel[T]) IsClosed() bool {
	select {
	case <-mc.done:
		return true
	default:
		return false
	}
}
