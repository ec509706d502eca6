package domain

import "errors"

// Domain errors represent error conditions in the gonesbridge domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrStorageUnavailable is returned when the database cannot be opened or upgraded.
	ErrStorageUnavailable = errors.New("gonesbridge: storage unavailable")

	// ErrReadFailed is returned when a read transaction fails.
	ErrReadFailed = errors.New("gonesbridge: read failed")

	// ErrWriteFailed is returned when a write transaction fails.
	ErrWriteFailed = errors.New("gonesbridge: write failed")

	// ErrMigrationConflict marks a legacy entry whose key already exists.
	// It is recovered by skipping the entry and never returned to callers.
	ErrMigrationConflict = errors.New("gonesbridge: migration conflict")

	// ErrLoadFailed is returned when the sandboxed module cannot be instantiated.
	// The session is unusable afterwards; the host has to rebuild the controller.
	ErrLoadFailed = errors.New("gonesbridge: module load failed")

	// ErrProtocolViolation marks a command addressed to a module that is not loaded.
	ErrProtocolViolation = errors.New("gonesbridge: protocol violation")

	// ErrAlreadyPlaying is returned when play is requested during a session.
	ErrAlreadyPlaying = errors.New("gonesbridge: already playing")

	// ErrNotReady is returned when play is requested before the module is ready.
	ErrNotReady = errors.New("gonesbridge: not ready")

	// ErrUnknownCollection is returned for a collection other than states or saves.
	ErrUnknownCollection = errors.New("gonesbridge: unknown collection")

	// ErrInvalidName is returned for an empty record name.
	ErrInvalidName = errors.New("gonesbridge: invalid record name")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gonesbridge: invalid configuration")

	// ErrShutdownTimeout is returned when a running session does not stop in time.
	ErrShutdownTimeout = errors.New("gonesbridge: shutdown timeout")
)
