// Package storage defines the persistence gateway contract for the ledger.
package storage

import (
	"context"
	"errors"

	"github.com/mertab/minibank/internal/models"
)

// SnapshotStore reads and writes the whole holder table as one snapshot.
// This abstraction allows swapping backends (JSON file, SQLite, ...) without
// changing the ledger.
type SnapshotStore interface {
	// Load reads the persisted snapshot. It returns ErrSnapshotMissing when
	// no snapshot has ever been written, so the caller can seed from a
	// template.
	Load(ctx context.Context) ([]models.AccountHolder, error)

	// Save persists the given table, replacing any previous snapshot. A
	// failed Save must leave the previous snapshot readable.
	Save(ctx context.Context, holders []models.AccountHolder) error

	// Close releases any resources held by the store.
	Close() error
}

var (
	// ErrSnapshotMissing reports that no snapshot exists yet.
	ErrSnapshotMissing = errors.New("snapshot missing")

	// ErrPersistence reports that a snapshot could not be read or written.
	// I/O and decode failures wrap this sentinel.
	ErrPersistence = errors.New("persistence failure")
)
