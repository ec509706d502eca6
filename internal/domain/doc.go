// Package domain contains the core entities and value objects for gonesbridge.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (SQLite, JavaScript runtimes,
// file system, logging) and contains only the persistence and session rules.
//
// # Entities
//
//   - [Collection]: One of the two record collections, "states" or "saves"
//   - [LegacyEntry]: A key/value pair from the pre-database storage area
//   - [Cartridge]: The payload handed to the sandboxed module for one session
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
