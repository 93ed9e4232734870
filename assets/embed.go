// Package assets embeds the files the binaries ship with: SQL migrations for
// the SQLite repository and the default puzzle set used to seed an empty store.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql puzzles.json
var FS embed.FS

// Migrations returns the sql/ directory as its own filesystem.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultPuzzles returns the raw JSON of the bundled puzzle set.
func DefaultPuzzles() ([]byte, error) {
	return FS.ReadFile("puzzles.json")
}
