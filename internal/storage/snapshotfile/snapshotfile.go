// Package snapshotfile persists the holder table as a pretty-printed JSON
// array in a single file.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so a crash mid-write leaves the previous snapshot intact.
package snapshotfile

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/storage"
)

// template.json is the bundled first-run seed, used when no snapshot exists.
//
//go:embed template.json
var templateJSON []byte

// Ensure Store implements storage.SnapshotStore.
var _ storage.SnapshotStore = (*Store)(nil)

// Store is a file-backed snapshot store.
type Store struct {
	path string
}

// New creates a snapshot store writing to path, creating parent directories
// as needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating snapshot directory: %v", storage.ErrPersistence, err)
		}
	}
	return &Store{path: path}, nil
}

// Load reads and decodes the snapshot file. A missing file is reported as
// storage.ErrSnapshotMissing; a malformed one as storage.ErrPersistence.
func (s *Store) Load(_ context.Context) ([]models.AccountHolder, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("%w: opening %s: %v", storage.ErrPersistence, s.path, err)
	}
	defer f.Close()

	var holders []models.AccountHolder
	if err := json.NewDecoder(f).Decode(&holders); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", storage.ErrPersistence, s.path, err)
	}
	return holders, nil
}

// Save writes the table atomically: encode to <path>.tmp, then rename over
// the target.
func (s *Store) Save(_ context.Context, holders []models.AccountHolder) error {
	if holders == nil {
		holders = []models.AccountHolder{}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", storage.ErrPersistence, tmp, err)
	}

	// Indented output keeps the snapshot hand-inspectable.
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(holders); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: encoding snapshot: %v", storage.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: closing %s: %v", storage.ErrPersistence, tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: installing snapshot: %v", storage.ErrPersistence, err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error { return nil }

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Template decodes the bundled first-run seed.
func Template() ([]models.AccountHolder, error) {
	var holders []models.AccountHolder
	if err := json.Unmarshal(templateJSON, &holders); err != nil {
		return nil, fmt.Errorf("%w: decoding bundled template: %v", storage.ErrPersistence, err)
	}
	return holders, nil
}
