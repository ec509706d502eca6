// Package protocol defines the messages exchanged between a host and the
// sandboxed emulator it embeds.
//
// The vocabulary is closed: [Ready], [Play], [Name], [Exit], [SaveState] and
// [LoadState]. Each variant has a stable string [Tag] used on the wire.
// Messages are immutable values and carry no sequence number; ordering is
// the controller's job.
//
// # Dispatch
//
// Receivers implement [Handler], which has one method per variant, and call
// [Dispatch]. Adding a variant adds a method, so every handler that misses it
// stops compiling.
//
// # Transport
//
// A [Conn] carries messages across one boundary. [Pipe] connects two
// endpoints inside a process with a typed channel per direction;
// [NewStreamConn] frames JSON envelopes over a byte stream for a
// cross-process boundary. Pick one per boundary.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package protocol
