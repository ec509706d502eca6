package legacy

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/bft-labs/gonesbridge/internal/ports"
)

// DumpSource reads a JSON object of key/value pairs, such as an export of the
// browser's localStorage. Keys keep the order they have in the document.
// String values are used verbatim; any other JSON value is kept as raw JSON.
type DumpSource struct {
	path string

	once   sync.Once
	err    error
	keys   []string
	values map[string][]byte
}

// NewDumpSource creates a source over the JSON file at path.
// The file is read lazily, on first use.
func NewDumpSource(path string) *DumpSource {
	return &DumpSource{path: path}
}

// Keys returns the object's keys in document order.
func (d *DumpSource) Keys(ctx context.Context) ([]string, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	return append([]string(nil), d.keys...), nil
}

// Value returns the value stored under key.
func (d *DumpSource) Value(ctx context.Context, key string) ([]byte, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	v, ok := d.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (d *DumpSource) load() error {
	d.once.Do(func() {
		raw, err := os.ReadFile(d.path)
		if err != nil {
			d.err = fmt.Errorf("read legacy dump: %w", err)
			return
		}
		d.err = d.parse(raw)
	})
	return d.err
}

func (d *DumpSource) parse(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("legacy dump %s: invalid JSON", d.path)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return fmt.Errorf("legacy dump %s: top-level value must be an object", d.path)
	}

	d.values = make(map[string][]byte)
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, dup := d.values[k]; !dup {
			d.keys = append(d.keys, k)
		}
		if value.Type == gjson.String {
			d.values[k] = []byte(value.String())
		} else {
			d.values[k] = []byte(value.Raw)
		}
		return true
	})
	return nil
}

var _ ports.LegacySource = (*DumpSource)(nil)
