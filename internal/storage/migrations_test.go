package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countVersions(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	return count
}

func TestApplyMigrations_CreatesTables(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	for _, table := range []string{"schema_version", "embedding_snapshots", "item_embeddings", "snapshot_builds"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	// once per migration, and not again on re-apply
	assert.Equal(t, len(AllMigrations), countVersions(t, db))
	require.NoError(t, ApplyMigrations(ctx, db))
	assert.Equal(t, len(AllMigrations), countVersions(t, db))
}

// Versions compare semantically: 1.10.0 is newer than 1.2.0.
func TestApplyMigrations_SemanticOrdering(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		applied   string
		runs      bool
	}{
		{"major", "2.0.0", "1.9.9", true},
		{"minor not lexicographic", "1.10.0", "1.2.0", true},
		{"patch", "1.0.10", "1.0.2", true},
		{"equal", "1.0.0", "1.0.0", false},
		{"older", "1.2.0", "1.10.0", false},
		{"pre-release below release", "1.0.0-alpha", "1.0.0", false},
		{"pre-release ordering", "1.0.0-beta", "1.0.0-alpha", true},
		{"build metadata ignored", "1.0.0+build.1", "1.0.0+build.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openMemoryDB(t)
			ctx := context.Background()

			_, err := db.ExecContext(ctx, `CREATE TABLE schema_version (
				version TEXT PRIMARY KEY,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`)
			require.NoError(t, err)
			_, err = db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", tt.applied)
			require.NoError(t, err)

			original := AllMigrations
			AllMigrations = []Migration{{Version: tt.candidate, Up: "SELECT 1", Down: "SELECT 1"}}
			defer func() { AllMigrations = original }()

			require.NoError(t, ApplyMigrations(ctx, db))

			want := 1
			if tt.runs {
				want = 2
			}
			assert.Equal(t, want, countVersions(t, db))
		})
	}
}

func TestSchemaVersion(t *testing.T) {
	tests := []struct {
		name    string
		setup   string
		want    string
		wantErr bool
	}{
		{"no table", "", "0.0.0", false},
		{"empty table", "CREATE TABLE schema_version (version TEXT PRIMARY KEY)", "0.0.0", false},
		{"highest wins", `CREATE TABLE schema_version (version TEXT PRIMARY KEY);
			INSERT INTO schema_version VALUES ('1.10.0'), ('1.2.0')`, "1.10.0", false},
		{"invalid version", `CREATE TABLE schema_version (version TEXT PRIMARY KEY);
			INSERT INTO schema_version VALUES ('invalid-version')`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openMemoryDB(t)
			if tt.setup != "" {
				_, err := db.Exec(tt.setup)
				require.NoError(t, err)
			}

			v, err := SchemaVersion(context.Background(), db)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid schema version")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestRollbackMigration_Empty(t *testing.T) {
	db := openMemoryDB(t)
	assert.Error(t, RollbackMigration(context.Background(), db))
}
