package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ImportReport counts what a legacy import did with each key.
type ImportReport struct {
	Scanned   int
	States    int
	Saves     int
	Skipped   int
	Conflicts int
	Failed    int
}

// Imported returns the number of records written.
func (r ImportReport) Imported() int {
	return r.States + r.Saves
}

func (r ImportReport) fields() []log.Field {
	return []log.Field{
		log.Int("imported", r.Imported()),
		log.Int("scanned", r.Scanned),
		log.Int("states", r.States),
		log.Int("saves", r.Saves),
		log.Int("skipped", r.Skipped),
		log.Int("conflicts", r.Conflicts),
		log.Int("failed", r.Failed),
	}
}

type txExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// importLegacy copies recognised legacy entries into their collections with
// add semantics. Every failure is logged and counted; none aborts the import.
func importLegacy(ctx context.Context, tx txExecer, src ports.LegacySource, logger log.Logger) ImportReport {
	var report ImportReport

	keys, err := src.Keys(ctx)
	if err != nil {
		logger.Warn("legacy storage unreadable, skipping import", log.Err(err))
		report.Failed++
		return report
	}

	for _, key := range keys {
		report.Scanned++

		collection, ok := domain.CollectionForKey(key)
		if !ok {
			report.Skipped++
			logger.Debug("ignoring legacy entry", log.String("key", key))
			continue
		}

		entry, err := readEntry(ctx, src, key)
		if err != nil {
			report.Failed++
			logger.Warn("failed to read legacy entry", log.String("key", key), log.Err(err))
			continue
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO "+string(collection)+" (name, data) VALUES (?, ?)", entry.Key, entry.Value)
		switch {
		case err == nil:
			if collection == domain.States {
				report.States++
			} else {
				report.Saves++
			}
			logger.Info("migrated legacy entry", log.String("collection", collection.String()), log.String("key", key))
		case isConflict(err):
			report.Conflicts++
			logger.Debug("legacy entry already present", log.String("key", key), log.Err(domain.ErrMigrationConflict))
		default:
			report.Failed++
			logger.Warn("failed to migrate legacy entry", log.String("key", key), log.Err(err))
		}
	}

	return report
}

// readEntry fetches key from src. A missing value migrates as an empty blob.
func readEntry(ctx context.Context, src ports.LegacySource, key string) (domain.LegacyEntry, error) {
	value, err := src.Value(ctx, key)
	if err != nil {
		return domain.LegacyEntry{}, err
	}
	if value == nil {
		value = []byte{}
	}
	return domain.LegacyEntry{Key: key, Value: value}, nil
}

// isConflict reports whether err is a primary key violation.
func isConflict(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
