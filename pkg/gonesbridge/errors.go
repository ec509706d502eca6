package gonesbridge

import (
	"errors"

	"github.com/bft-labs/gonesbridge/internal/domain"
)

// Errors returned by the bridge. Check with errors.Is.
var (
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrReadFailed         = domain.ErrReadFailed
	ErrWriteFailed        = domain.ErrWriteFailed
	ErrLoadFailed         = domain.ErrLoadFailed
	ErrProtocolViolation  = domain.ErrProtocolViolation
	ErrAlreadyPlaying     = domain.ErrAlreadyPlaying
	ErrNotReady           = domain.ErrNotReady
	ErrUnknownCollection  = domain.ErrUnknownCollection
	ErrInvalidName        = domain.ErrInvalidName
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrShutdownTimeout    = domain.ErrShutdownTimeout

	// ErrAlreadyStarted is returned by Start on a bridge that has been started.
	ErrAlreadyStarted = errors.New("gonesbridge: already started")

	// ErrNotStarted is returned by Stop on a bridge that is not running.
	ErrNotStarted = errors.New("gonesbridge: not started")
)
