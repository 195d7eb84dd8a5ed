package sqlite

import "database/sql"

// runMigrations creates the schema if it does not exist yet. Append-only:
// never edit an existing statement, add a new one.
func runMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS holders (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			password TEXT NOT NULL,
			email TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			number TEXT PRIMARY KEY,
			holder_id INTEGER NOT NULL REFERENCES holders(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			balance REAL NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_number TEXT NOT NULL REFERENCES accounts(number) ON DELETE CASCADE,
			date INTEGER NOT NULL,
			amount REAL NOT NULL,
			details TEXT NOT NULL,
			to_account TEXT NOT NULL,
			from_account TEXT NOT NULL,
			recipient_id INTEGER NOT NULL,
			recipient_name TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_holder ON accounts(holder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_number)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
