package ports

import (
	"context"

	"github.com/bft-labs/gonesbridge/internal/domain"
)

// BlobStore persists named blobs in the states and saves collections.
type BlobStore interface {
	// Put writes data under name, replacing any existing record.
	// Returns only after the write is committed.
	Put(ctx context.Context, collection domain.Collection, name string, data []byte) error

	// Get returns the stored blob, or nil and no error if name was never written.
	Get(ctx context.Context, collection domain.Collection, name string) ([]byte, error)
}
