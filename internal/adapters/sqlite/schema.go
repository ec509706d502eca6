package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// SchemaVersion is the version an up-to-date database reports.
const SchemaVersion = 1

// migration is one versioned upgrade step. Steps run in order inside a single
// transaction, each only when the database is older than its version.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx) error
}

func (s *Store) migrations() []migration {
	return []migration{
		{
			version: 1,
			name:    "create collections and import legacy storage",
			up: func(ctx context.Context, tx *sql.Tx) error {
				if err := createCollections(ctx, tx); err != nil {
					return err
				}
				if s.legacy != nil {
					report := importLegacy(ctx, tx, s.legacy, s.logger)
					s.logger.Info("legacy storage imported", report.fields()...)
				}
				return nil
			},
		},
	}
}

// upgrade brings db to SchemaVersion. The version is re-read after the write
// lock is taken so that racing opens upgrade only once.
func (s *Store) upgrade(ctx context.Context, db *sql.DB) error {
	current, err := userVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upgrade: %w", err)
	}

	current, err = userVersion(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range s.migrations() {
		if m.version <= current {
			continue
		}
		s.logger.Info("upgrading database",
			log.String("path", s.path),
			log.Int("from", current),
			log.Int("to", m.version),
			log.String("step", m.name),
		)
		if err := m.up(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		current = m.version
	}

	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", current)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upgrade: %w", err)
	}
	return nil
}

func createCollections(ctx context.Context, tx *sql.Tx) error {
	for _, c := range domain.Collections() {
		stmt := "CREATE TABLE IF NOT EXISTS " + string(c) + " (name TEXT PRIMARY KEY, data BLOB NOT NULL)"
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", c, err)
		}
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userVersion(ctx context.Context, q queryer) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
