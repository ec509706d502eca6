package legacy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/gonesbridge/internal/ports"
)

// DirSource reads regular files from one or more flat directories.
// File names are the keys. Missing directories are treated as empty.
type DirSource struct {
	dirs []string
}

// NewDirSource creates a source over dirs, enumerated in the given order.
func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{dirs: dirs}
}

// Keys lists file names per directory in lexical order.
// Sub-directories are ignored; a name present in several directories is
// listed once, for the first directory holding it.
func (d *DirSource) Keys(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var keys []string
	for _, dir := range d.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read legacy dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || seen[e.Name()] {
				continue
			}
			seen[e.Name()] = true
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

// Value reads the file named key from the first directory that has it.
func (d *DirSource) Value(ctx context.Context, key string) ([]byte, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return nil, fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}
	for _, dir := range d.dirs {
		data, err := os.ReadFile(filepath.Join(dir, key))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read legacy entry %s: %w", key, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

var _ ports.LegacySource = (*DirSource)(nil)
