package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no snapshot has been stored yet
	ErrNotFound = errors.New("not found")
	// ErrCorruptSnapshot means the stored rows cannot be decoded into a
	// consistent snapshot. Callers rebuild rather than fail.
	ErrCorruptSnapshot = errors.New("corrupt embedding snapshot")
	// ErrInvalidSnapshot rejects a snapshot before it is written
	ErrInvalidSnapshot = errors.New("invalid embedding snapshot")
)

// SnapshotInfo describes a stored snapshot without its vectors.
type SnapshotInfo struct {
	ItemCount int
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Snapshot is the full set of item embeddings for one corpus build.
// Vectors[i] belongs to corpus row i.
type Snapshot struct {
	SnapshotInfo
	Vectors [][]float32
}

// Validate checks the snapshot is internally consistent.
func (s *Snapshot) Validate() error {
	if s.Dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidSnapshot, s.Dimension)
	}
	if s.ItemCount != len(s.Vectors) {
		return fmt.Errorf("%w: item count %d but %d vectors", ErrInvalidSnapshot, s.ItemCount, len(s.Vectors))
	}
	for i, v := range s.Vectors {
		if len(v) != s.Dimension {
			return fmt.Errorf("%w: vector %d has %d components, want %d", ErrInvalidSnapshot, i, len(v), s.Dimension)
		}
	}
	return nil
}

// Store persists the embedding snapshot between runs.
type Store interface {
	// GetSnapshot returns ErrNotFound when empty and ErrCorruptSnapshot
	// when the rows do not decode.
	GetSnapshot(ctx context.Context) (*Snapshot, error)
	GetSnapshotInfo(ctx context.Context) (*SnapshotInfo, error)
	// ReplaceSnapshot swaps the stored snapshot in one transaction.
	ReplaceSnapshot(ctx context.Context, snap *Snapshot) error
	DeleteSnapshot(ctx context.Context) error

	RecordBuild(ctx context.Context, rec BuildRecord) error
	RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error)

	Close() error
}
