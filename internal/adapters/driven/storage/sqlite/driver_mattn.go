//go:build sqlite_cgo

package sqlite

import (
	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
)

const driverName = "sqlite3"

// dsn enables WAL, a busy timeout and foreign keys on every pooled connection.
func dsn(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}
