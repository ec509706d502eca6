// Package gonesbridge hosts a sandboxed NES emulator module behind a small
// message protocol, keeping its save states and battery saves in SQLite.
//
// Example usage:
//
//	cfg := gonesbridge.DefaultConfig()
//	cfg.DBPath = "/path/to/gones.db"
//	cfg.ModulePath = "/path/to/gones.js"
//	if err := gonesbridge.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
package gonesbridge

import (
	"context"
	"io"

	bridge "github.com/bft-labs/gonesbridge/pkg/gonesbridge"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// Config holds the bridge configuration.
// Use DefaultConfig() to get a Config with default timings.
type Config = bridge.Config

// Option configures optional behavior of the bridge.
type Option = bridge.Option

// DefaultConfig returns a Config with default timings.
// At minimum, you must set DBPath and ModulePath before calling Run.
func DefaultConfig() Config {
	return bridge.DefaultConfig()
}

// Run starts a bridge and blocks until ctx is cancelled, then stops it.
// The host end of the protocol is handed to onStart, which may be nil.
func Run(ctx context.Context, cfg Config, onStart func(*bridge.Bridge), opts ...Option) error {
	b, err := bridge.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		_ = b.Stop()
		return err
	}
	if onStart != nil {
		onStart(b)
	}

	<-ctx.Done()
	return b.Stop()
}

// NewLogger returns a zerolog-backed logger writing to w at the given level.
func NewLogger(w io.Writer, level string) log.Logger {
	return log.NewZerologAdapter(w, level)
}
