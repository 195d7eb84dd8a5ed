package ledger

import "github.com/mertab/minibank/internal/models"

// Simple filtered lookups over a table snapshot. All of these are pure
// linear scans over the deep copy callers get from Store.All.

// HoldersByRole returns the holders carrying the given role tag.
func HoldersByRole(holders []models.AccountHolder, role string) []models.AccountHolder {
	var out []models.AccountHolder
	for _, h := range holders {
		if h.Role == role {
			out = append(out, h)
		}
	}
	return out
}

// AccountsByType returns every account in the table with the given type tag.
func AccountsByType(holders []models.AccountHolder, accountType string) []models.Account {
	var out []models.Account
	for _, h := range holders {
		for _, a := range h.Accounts {
			if a.Type == accountType {
				out = append(out, a)
			}
		}
	}
	return out
}

// EntriesBetween returns the account's entries with from <= date <= to,
// preserving history order. Zero bounds are open.
func EntriesBetween(account models.Account, from, to int64) []models.TransactionEntry {
	var out []models.TransactionEntry
	for _, e := range account.Transactions {
		if from != 0 && e.Date < from {
			continue
		}
		if to != 0 && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out
}
