// Package legacy provides read-only views of the flat key/value storage that
// predates the blob store. Each view implements ports.LegacySource and is
// consumed once, by the store's first upgrade.
//
// Sources:
//   - [DirSource]: flat directories of files named by key, as written by the
//     desktop build's saves and states folders
//   - [DumpSource]: a JSON object exported from the browser's key/value area
//   - [MapSource]: an in-memory ordered map
//   - [Multi]: several sources enumerated one after another
package legacy

import "errors"

// ErrNotFound is returned by Value for a key the source does not hold.
var ErrNotFound = errors.New("legacy: key not found")
