package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// SQLiteStorage implements Store on a single SQLite file.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Store = (*SQLiteStorage)(nil)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// a single connection also keeps ":memory:" databases alive and shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage opens (or creates) the snapshot database and applies
// pending migrations. Use ":memory:" for a throwaway store.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) GetSnapshotInfo(ctx context.Context) (*SnapshotInfo, error) {
	var (
		info    SnapshotInfo
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT item_count, dimension, provider, model, created_at
		FROM embedding_snapshots WHERE id = 1
	`).Scan(&info.ItemCount, &info.Dimension, &info.Provider, &info.Model, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot info: %w", err)
	}
	info.CreatedAt = time.Unix(created, 0).UTC()
	return &info, nil
}

func (s *SQLiteStorage) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	info, err := s.GetSnapshotInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info.ItemCount < 0 || info.Dimension <= 0 {
		return nil, fmt.Errorf("%w: item count %d, dimension %d", ErrCorruptSnapshot, info.ItemCount, info.Dimension)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT row_index, vector FROM item_embeddings ORDER BY row_index")
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make([][]float32, 0, info.ItemCount)
	for rows.Next() {
		var (
			rowIndex int
			blob     []byte
		)
		if err := rows.Scan(&rowIndex, &blob); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if rowIndex != len(vectors) {
			return nil, fmt.Errorf("%w: expected row %d, found %d", ErrCorruptSnapshot, len(vectors), rowIndex)
		}
		vector, err := deserializeVector(blob, info.Dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrCorruptSnapshot, rowIndex, err)
		}
		vectors = append(vectors, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}
	if len(vectors) != info.ItemCount {
		return nil, fmt.Errorf("%w: header says %d items, found %d", ErrCorruptSnapshot, info.ItemCount, len(vectors))
	}

	return &Snapshot{SnapshotInfo: *info, Vectors: vectors}, nil
}

func (s *SQLiteStorage) ReplaceSnapshot(ctx context.Context, snap *Snapshot) (err error) {
	if err := snap.Validate(); err != nil {
		return err
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM item_embeddings"); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM embedding_snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO embedding_snapshots (id, item_count, dimension, provider, model, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
	`, snap.ItemCount, snap.Dimension, snap.Provider, snap.Model, snap.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO item_embeddings (row_index, vector) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range snap.Vectors {
		if _, err = stmt.ExecContext(ctx, i, serializeVector(v)); err != nil {
			return fmt.Errorf("failed to write embedding %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM item_embeddings"); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM embedding_snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return tx.Commit()
}

// BuildRecord is one completed embedding run.
type BuildRecord struct {
	ItemCount int
	Provider  string
	Model     string
	Duration  time.Duration
	BuiltAt   time.Time
}

// RecordBuild appends to the build history.
func (s *SQLiteStorage) RecordBuild(ctx context.Context, rec BuildRecord) error {
	builtAt := rec.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshot_builds (item_count, provider, model, duration_ms, built_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ItemCount, rec.Provider, rec.Model, rec.Duration.Milliseconds(), builtAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *SQLiteStorage) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_count, provider, model, duration_ms, built_at
		FROM snapshot_builds ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var (
			rec     BuildRecord
			ms      int64
			builtAt int64
		)
		if err := rows.Scan(&rec.ItemCount, &rec.Provider, &rec.Model, &ms, &builtAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		rec.BuiltAt = time.Unix(builtAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector decodes a blob written by serializeVector.
func deserializeVector(blob []byte, dimension int) ([]float32, error) {
	if len(blob) != dimension*4 {
		return nil, fmt.Errorf("blob has %d bytes, want %d", len(blob), dimension*4)
	}
	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
