// Package sqlite implements the blob store on an embedded SQLite database
// (modernc.org/sqlite, no cgo).
//
// The database holds two collections, states and saves, each a table keyed
// by record name. Its schema version lives in PRAGMA user_version; opening
// an older database runs the pending migration steps, the first of which
// imports the legacy key/value area.
//
// Every operation acquires its own connection, runs a single transaction and
// closes the connection before returning. Nothing is cached between calls, so
// concurrent operations race at open time and rely on SQLite's locking
// (immediate transactions plus a busy timeout) to serialise them. This costs
// an open per call; callers that need throughput should batch at a higher
// level.
package sqlite
