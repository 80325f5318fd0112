// Package storage persists the semantic index's item embeddings in SQLite
// so a restart with an unchanged corpus skips re-embedding.
//
// The database holds one live snapshot (a header row plus one BLOB per
// corpus row, little-endian float32) and a short build history. Replacing
// a snapshot happens in a single transaction, so readers see either the
// old snapshot or the new one.
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with
// -tags sqlite_cgo switches to github.com/mattn/go-sqlite3. DriverName and
// BuildMode report which one is compiled in.
//
// # Migrations
//
// Schema changes are listed in AllMigrations and applied in semantic
// version order on open. RollbackMigration undoes the latest one.
package storage
