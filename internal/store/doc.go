// Package store is the SQLite session log.
//
// Every block run is recorded as a session row plus one row per trial.
// Trial rows are keyed by their content-addressed ID, so writing the same
// trial twice is a no-op. Reads are ordered by the logical sequence number
// (ORDER BY seq ASC, id COLLATE BINARY ASC) and never by wall time.
//
// Two drivers are supported: mattn/go-sqlite3 ("sqlite3", cgo) and
// modernc.org/sqlite ("sqlite", pure Go). Both get the same pragmas:
//
//   - journal_mode=WAL
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
