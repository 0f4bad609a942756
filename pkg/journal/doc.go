// Package journal keeps a record of dispatches.
//
// Two backends are provided: Memory, a bounded ring buffer, and SQLite,
// which persists entries through modernc.org/sqlite. Open picks one from the
// Journal section of the configuration.
package journal
