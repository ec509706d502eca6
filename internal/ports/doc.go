// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [BlobStore]: Reads and writes named blobs in the states and saves collections
//   - [LegacySource]: Enumerates the flat legacy storage area for migration
//   - [ModuleLoader]: Instantiates the sandboxed emulator module
//   - [Module]: The running module and its capability surface
//   - [Host]: Capabilities the controller exposes to the module
//   - [SurfaceLocator] / [Surface]: The module's rendering surface
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (SQLite, goja, file system, etc.).
package ports
