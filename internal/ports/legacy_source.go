package ports

import "context"

// LegacySource is the flat key/value area that predates the blob store.
// It is only ever read.
type LegacySource interface {
	// Keys returns every key in the source's iteration order.
	Keys(ctx context.Context) ([]string, error)

	// Value returns the value stored under key.
	Value(ctx context.Context, key string) ([]byte, error)
}
