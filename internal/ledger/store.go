// Package ledger implements the core of the bank: the process-wide account
// holder table, pure lookups over it, and the money-movement executor.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mertab/minibank/internal/metrics"
	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/storage"
)

// Store owns the single source of truth for the process: the table of all
// account holders. All reads hand out deep copies and all mutations run
// under one mutex, so concurrent callers serialize instead of losing
// updates.
//
// Mutations follow a persist-then-install discipline: the candidate table is
// written through the snapshot gateway first and replaces the in-memory
// table only if the write succeeded. A persistence failure therefore leaves
// the live table exactly as it was.
type Store struct {
	mu       sync.Mutex
	snap     storage.SnapshotStore
	template []models.AccountHolder

	holders []models.AccountHolder
	index   map[int64]int // holder id -> position in holders
}

// NewStore creates a store over the given snapshot gateway. template is the
// table used when no snapshot exists yet; nil starts empty.
func NewStore(snap storage.SnapshotStore, template []models.AccountHolder) *Store {
	return &Store{
		snap:     snap,
		template: models.CloneAll(template),
		index:    make(map[int64]int),
	}
}

// Load populates the in-memory table from the snapshot gateway. When no
// snapshot exists the bundled template is installed and immediately
// persisted, so subsequent loads are stable. The loaded table is validated
// for account-number uniqueness.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	holders, err := s.snap.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrSnapshotMissing):
		slog.Info("no snapshot found, seeding from template", "holders", len(s.template))
		holders = models.CloneAll(s.template)
		if err := s.saveLocked(ctx, holders); err != nil {
			return err
		}
	default:
		return err
	}

	if err := validateAccountNumbers(holders); err != nil {
		return fmt.Errorf("loaded snapshot invalid: %w", err)
	}

	s.installLocked(holders)
	slog.Info("ledger loaded", "holders", len(holders))
	return nil
}

// Save serializes the current table through the snapshot gateway.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, s.holders)
}

// All returns a deep copy of the whole table in display order.
func (s *Store) All() []models.AccountHolder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAll(s.holders)
}

// ByID returns a deep copy of the holder with the given id.
func (s *Store) ByID(id int64) (models.AccountHolder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return models.AccountHolder{}, false
	}
	return s.holders[i].Clone(), true
}

// Add appends a new holder to the table and persists. A zero id is assigned
// the next free one. Fails with ErrDuplicateHolderID or
// ErrDuplicateAccountNumber without mutating anything.
func (s *Store) Add(ctx context.Context, holder models.AccountHolder) (models.AccountHolder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if holder.ID == 0 {
		holder.ID = s.nextIDLocked()
	}
	if _, exists := s.index[holder.ID]; exists {
		return models.AccountHolder{}, fmt.Errorf("%w: %d", ErrDuplicateHolderID, holder.ID)
	}

	candidate := append(models.CloneAll(s.holders), holder.Clone())
	if err := validateAccountNumbers(candidate); err != nil {
		return models.AccountHolder{}, err
	}
	if err := s.saveLocked(ctx, candidate); err != nil {
		return models.AccountHolder{}, err
	}
	s.installLocked(candidate)
	return holder, nil
}

// Replace overwrites the holder with updated.ID. Fails with
// ErrHolderNotFound if no holder has that id.
func (s *Store) Replace(ctx context.Context, updated models.AccountHolder) error {
	return s.Commit(ctx, updated)
}

// Commit atomically replaces one or more holders by id and persists the
// result with a single snapshot write. The in-memory table changes only if
// the write succeeds.
func (s *Store) Commit(ctx context.Context, updated ...models.AccountHolder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, updated...)
}

// Remove deletes the holder with the given id (used by provisioning when a
// holder's last account is closed).
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrHolderNotFound, id)
	}

	candidate := models.CloneAll(s.holders)
	candidate = append(candidate[:i], candidate[i+1:]...)
	if err := s.saveLocked(ctx, candidate); err != nil {
		return err
	}
	s.installLocked(candidate)
	return nil
}

// Update runs fn with a consistent deep-copied view of the table and commits
// the replacement holders fn returns, all inside one critical section. This
// is the executor's entry point: racing callers serialize here instead of
// interleaving read-modify-write cycles. Returning no holders commits
// nothing. fn must not call back into the store.
func (s *Store) Update(ctx context.Context, fn func(holders []models.AccountHolder) ([]models.AccountHolder, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := fn(models.CloneAll(s.holders))
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}
	return s.commitLocked(ctx, updated...)
}

// Rewrite runs fn with a consistent deep-copied view of the table and
// installs the full replacement table fn returns, all inside one critical
// section. Unlike Update, the returned slice is the whole table: holders
// absent from it are removed. Returning nil commits nothing. fn must not
// call back into the store.
func (s *Store) Rewrite(ctx context.Context, fn func(holders []models.AccountHolder) ([]models.AccountHolder, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, err := fn(models.CloneAll(s.holders))
	if err != nil {
		return err
	}
	if candidate == nil {
		return nil
	}
	candidate = models.CloneAll(candidate)
	if err := validateAccountNumbers(candidate); err != nil {
		return err
	}
	if err := s.saveLocked(ctx, candidate); err != nil {
		return err
	}
	s.installLocked(candidate)
	return nil
}

// Reset clears the in-memory table. Test-only; nothing is persisted.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders = nil
	s.index = make(map[int64]int)
}

// NextID returns the smallest id greater than every id in the table.
func (s *Store) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked()
}

func (s *Store) nextIDLocked() int64 {
	var max int64
	for _, h := range s.holders {
		if h.ID > max {
			max = h.ID
		}
	}
	return max + 1
}

func (s *Store) commitLocked(ctx context.Context, updated ...models.AccountHolder) error {
	candidate := models.CloneAll(s.holders)
	for _, h := range updated {
		i, ok := s.index[h.ID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrHolderNotFound, h.ID)
		}
		candidate[i] = h.Clone()
	}
	if err := validateAccountNumbers(candidate); err != nil {
		return err
	}
	if err := s.saveLocked(ctx, candidate); err != nil {
		return err
	}
	s.installLocked(candidate)
	return nil
}

func (s *Store) saveLocked(ctx context.Context, holders []models.AccountHolder) error {
	if err := s.snap.Save(ctx, holders); err != nil {
		metrics.SnapshotWritesTotal.WithLabelValues("error").Inc()
		slog.Error("snapshot write failed", "error", err)
		return err
	}
	metrics.SnapshotWritesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Store) installLocked(holders []models.AccountHolder) {
	s.holders = holders
	s.index = make(map[int64]int, len(holders))
	for i, h := range holders {
		s.index[h.ID] = i
	}
}

// validateAccountNumbers rejects a table in which two accounts anywhere
// share a number.
func validateAccountNumbers(holders []models.AccountHolder) error {
	seen := make(map[string]int64)
	for _, h := range holders {
		for _, a := range h.Accounts {
			if owner, dup := seen[a.Number]; dup {
				return fmt.Errorf("%w: %s (holders %d and %d)", ErrDuplicateAccountNumber, a.Number, owner, h.ID)
			}
			seen[a.Number] = h.ID
		}
	}
	return nil
}
