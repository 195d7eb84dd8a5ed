// Package sqlite provides a SQLite-backed implementation of the
// storage.SnapshotStore interface.
//
// The snapshot is normalized into holders, accounts and transactions tables;
// Save replaces the whole table set inside one SQL transaction, so a failed
// write leaves the previous snapshot readable, matching the file backend's
// atomic-rename guarantee.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/storage"
)

// Ensure Store implements storage.SnapshotStore.
var _ storage.SnapshotStore = (*Store)(nil)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// New creates a Store at the given database path. It creates parent
// directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating database directory: %v", storage.ErrPersistence, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", storage.ErrPersistence, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %v", storage.ErrPersistence, err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %v", storage.ErrPersistence, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the whole holder table. An empty database reports
// storage.ErrSnapshotMissing so first run seeds from the bundled template.
func (s *Store) Load(ctx context.Context) ([]models.AccountHolder, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, name, role, password, email FROM holders ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying holders: %v", storage.ErrPersistence, err)
	}
	defer rows.Close()

	var holders []models.AccountHolder
	for rows.Next() {
		var h models.AccountHolder
		if err := rows.Scan(&h.ID, &h.Username, &h.Name, &h.Role, &h.Password, &h.Email); err != nil {
			return nil, fmt.Errorf("%w: scanning holder: %v", storage.ErrPersistence, err)
		}
		holders = append(holders, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating holders: %v", storage.ErrPersistence, err)
	}
	if len(holders) == 0 {
		return nil, storage.ErrSnapshotMissing
	}

	for i := range holders {
		accounts, err := s.loadAccounts(ctx, holders[i].ID)
		if err != nil {
			return nil, err
		}
		holders[i].Accounts = accounts
	}
	return holders, nil
}

func (s *Store) loadAccounts(ctx context.Context, holderID int64) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT number, type, balance FROM accounts WHERE holder_id = ? ORDER BY position",
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying accounts: %v", storage.ErrPersistence, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.Number, &a.Type, &a.Balance); err != nil {
			return nil, fmt.Errorf("%w: scanning account: %v", storage.ErrPersistence, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating accounts: %v", storage.ErrPersistence, err)
	}

	for i := range accounts {
		entries, err := s.loadEntries(ctx, accounts[i].Number)
		if err != nil {
			return nil, err
		}
		accounts[i].Transactions = entries
	}
	return accounts, nil
}

func (s *Store) loadEntries(ctx context.Context, accountNumber string) ([]models.TransactionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, amount, details, to_account, from_account, recipient_id, recipient_name
		 FROM transactions WHERE account_number = ? ORDER BY position`,
		accountNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying transactions: %v", storage.ErrPersistence, err)
	}
	defer rows.Close()

	var entries []models.TransactionEntry
	for rows.Next() {
		var e models.TransactionEntry
		if err := rows.Scan(&e.Date, &e.Amount, &e.Details, &e.ToAccount, &e.FromAccount, &e.RecipientID, &e.RecipientName); err != nil {
			return nil, fmt.Errorf("%w: scanning transaction: %v", storage.ErrPersistence, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transactions: %v", storage.ErrPersistence, err)
	}
	return entries, nil
}

// Save replaces the persisted snapshot with the given table in one SQL
// transaction.
func (s *Store) Save(ctx context.Context, holders []models.AccountHolder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", storage.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "accounts", "holders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%w: clearing %s: %v", storage.ErrPersistence, table, err)
		}
	}

	for pos, h := range holders {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO holders (id, username, name, role, password, email, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			h.ID, h.Username, h.Name, h.Role, h.Password, h.Email, pos,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting holder %d: %v", storage.ErrPersistence, h.ID, err)
		}

		for apos, a := range h.Accounts {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO accounts (number, holder_id, type, balance, position) VALUES (?, ?, ?, ?, ?)",
				a.Number, h.ID, a.Type, a.Balance, apos,
			)
			if err != nil {
				return fmt.Errorf("%w: inserting account %s: %v", storage.ErrPersistence, a.Number, err)
			}

			for epos, e := range a.Transactions {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO transactions
					 (account_number, date, amount, details, to_account, from_account, recipient_id, recipient_name, position)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					a.Number, e.Date, e.Amount, e.Details, e.ToAccount, e.FromAccount, e.RecipientID, e.RecipientName, epos,
				)
				if err != nil {
					return fmt.Errorf("%w: inserting transaction: %v", storage.ErrPersistence, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing snapshot: %v", storage.ErrPersistence, err)
	}
	return nil
}
