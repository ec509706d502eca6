package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"

	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout bounds how long an operation waits for another
// connection's transaction to finish.
const DefaultBusyTimeout = 5 * time.Second

// Store is the SQLite-backed blob store.
type Store struct {
	path        string
	busyTimeout time.Duration
	legacy      ports.LegacySource
	logger      log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLegacySource sets the area imported when the database is first created.
func WithLegacySource(src ports.LegacySource) Option {
	return func(s *Store) {
		s.legacy = src
	}
}

// WithLogger sets the logger used for upgrade and migration messages.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) {
		s.logger = log.OrNoop(logger)
	}
}

// WithBusyTimeout overrides DefaultBusyTimeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// Open opens the database at path, creating and upgrading it if needed.
// The connection used for the check is released before Open returns.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrStorageUnavailable)
	}

	s := &Store{
		path:        filepath.Clean(path),
		busyTimeout: DefaultBusyTimeout,
		logger:      log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Put writes data under name in collection, replacing any existing record.
func (s *Store) Put(ctx context.Context, collection domain.Collection, name string, data []byte) error {
	table, err := tableFor(collection, name)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data",
			name, data,
		)
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%w: put %s/%s: %w", domain.ErrWriteFailed, collection, name, err)
	}
	return err
}

// Get returns the blob stored under name, or nil when there is none.
func (s *Store) Get(ctx context.Context, collection domain.Collection, name string) ([]byte, error) {
	table, err := tableFor(collection, name)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT data FROM "+table+" WHERE name = ?", name)
		if err := row.Scan(&data); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				data = nil
				return nil
			}
			return err
		}
		if data == nil {
			data = []byte{}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get %s/%s: %w", domain.ErrReadFailed, collection, name, err)
	}
	return data, nil
}

// ImportLegacy runs the legacy import against the current database.
// Entries already present are skipped, so repeated imports are harmless.
func (s *Store) ImportLegacy(ctx context.Context, src ports.LegacySource) (ImportReport, error) {
	var report ImportReport
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		report = importLegacy(ctx, tx, src, s.logger)
		return nil
	})
	return report, err
}

// SchemaVersion returns the database's current schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		v, err := userVersion(ctx, tx)
		version = v
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrStorageUnavailable) {
		return 0, fmt.Errorf("%w: schema version: %w", domain.ErrReadFailed, err)
	}
	return version, err
}

// withTx opens a connection, runs fn in one transaction and closes the
// connection on every path.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// connect opens and upgrades a fresh connection.
func (s *Store) connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}

	if err := s.upgrade(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: upgrade %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}
	return db, nil
}

// dsn is a file: URI so that '?', '#' and '%' in the path stay part of the
// file name instead of starting the parameter list.
func (s *Store) dsn() string {
	path := (&url.URL{Path: filepath.ToSlash(s.path)}).EscapedPath()
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate",
		path, s.busyTimeout.Milliseconds())
}

// tableFor validates the collection and record name. The collection doubles
// as the table name, so it must come from the fixed set.
func tableFor(collection domain.Collection, name string) (string, error) {
	if !collection.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownCollection, string(collection))
	}
	if name == "" {
		return "", domain.ErrInvalidName
	}
	return string(collection), nil
}

var _ ports.BlobStore = (*Store)(nil)
