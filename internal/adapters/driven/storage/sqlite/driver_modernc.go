//go:build !sqlite_cgo

package sqlite

import (
	_ "modernc.org/sqlite" // SQLite driver
)

const driverName = "sqlite"

// dsn enables WAL, a busy timeout and foreign keys on every pooled connection.
func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
