// Package gonesbridge embeds a sandboxed NES emulator frame in a Go program.
//
// A Bridge owns three things: the emulator module (a script running in an
// isolated runtime), the SQLite database holding battery saves and save
// states, and an in-process protocol connection to the host page.
//
// # Basic Usage
//
//	cfg := gonesbridge.DefaultConfig()
//	cfg.DBPath = "/path/to/gones.db"
//	cfg.ModulePath = "/path/to/gones.js"
//
//	bridge, err := gonesbridge.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := bridge.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	host := bridge.Host()
//	msg, _ := host.Receive(ctx) // protocol.Ready
//	_ = host.Send(ctx, protocol.NewPlay("mario.nes", rom))
//
//	// ... relay SaveState / LoadState / Exit ...
//
//	if err := bridge.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Storage
//
// On the first open of a database, legacy saves found in [Config.LegacyDirs],
// [Config.LegacyDump] and any [WithLegacySource] sources are imported once.
// Existing records are never overwritten.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe
// frame state changes. Events are delivered synchronously.
//
// # Lifecycle States
//
// The frame moves Loading -> Ready -> Playing -> Exited -> Ready. A module
// that fails to load moves it to Failed, which is terminal.
//
// # Plugins
//
//	import "github.com/bft-labs/gonesbridge/plugins/romwatcher"
//
//	bridge, err := gonesbridge.New(cfg,
//	    romwatcher.WithROMWatcher(romwatcher.Config{Dir: "/path/to/roms"}),
//	)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// Use [ModuleVersions] to get versions of all sub-modules.
package gonesbridge
