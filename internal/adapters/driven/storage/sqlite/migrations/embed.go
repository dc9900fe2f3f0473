// Package migrations holds the SQLite schema as numbered scripts.
//
// Files are named NNN_description.up.sql (and .down.sql for manual
// rollback). The numeric prefix is the schema version.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Migration is one forward script.
type Migration struct {
	Version int
	Name    string
	Script  string
}

// Pending returns the up scripts in fsys newer than applied, oldest first.
// Files without a numeric prefix are skipped.
func Pending(fsys fs.FS, applied int) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= applied {
			continue
		}
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}
		out = append(out, Migration{Version: version, Name: name, Script: string(script)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}
