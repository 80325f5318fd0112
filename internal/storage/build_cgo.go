//go:build sqlite_cgo && !purego

package storage

// Compiled with CGO_ENABLED=1 and -tags sqlite_cgo. Uses the C SQLite
// amalgamation, which loads large snapshots noticeably faster.
//
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver registered by this build
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
