package legacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/gonesbridge/internal/ports"
)

type multiSource struct {
	sources []ports.LegacySource
}

// Multi enumerates sources one after another. A key is read from the first
// source that holds it. Nil sources are dropped.
func Multi(sources ...ports.LegacySource) ports.LegacySource {
	var kept []ports.LegacySource
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &multiSource{sources: kept}
}

func (m *multiSource) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for _, s := range m.sources {
		k, err := s.Keys(ctx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
	}
	return keys, nil
}

func (m *multiSource) Value(ctx context.Context, key string) ([]byte, error) {
	for _, s := range m.sources {
		v, err := s.Value(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}
