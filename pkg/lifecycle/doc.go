// Package lifecycle provides the frame state machine.
//
// A frame hosts one emulator module instance. The manager tracks whether
// that instance is loading, idle, running a cartridge, or has just exited,
// and coordinates the goroutines a session starts.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, emitter)
//
//	if err := manager.TransitionTo(lifecycle.StateReady, "module instantiated"); err != nil {
//	    return err
//	}
//
//	if manager.CanPlay() {
//	    _ = manager.TransitionTo(lifecycle.StatePlaying, "play")
//	    manager.AddWorker()
//	    go func() {
//	        defer manager.WorkerDone()
//	        // ... run the module ...
//	    }()
//	}
//
//	if err := manager.WaitWithTimeout(lifecycle.ShutdownTimeout); err != nil {
//	    return err
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Loading -> Ready, Failed
//   - Ready -> Playing
//   - Playing -> Exited
//   - Exited -> Ready, Failed
//
// Failed is terminal.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
