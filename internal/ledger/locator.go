package ledger

import "github.com/mertab/minibank/internal/models"

// FindHolder returns the holder with the given id from the table. Linear
// scan, first match wins. Pure: no side effects, no store access.
func FindHolder(holders []models.AccountHolder, id int64) (models.AccountHolder, bool) {
	for _, h := range holders {
		if h.ID == id {
			return h, true
		}
	}
	return models.AccountHolder{}, false
}

// FindAccount returns the account with the given number from the holder's
// account list. A nil holder yields not-found.
func FindAccount(holder *models.AccountHolder, number string) (models.Account, bool) {
	if holder == nil {
		return models.Account{}, false
	}
	for _, a := range holder.Accounts {
		if a.Number == number {
			return a, true
		}
	}
	return models.Account{}, false
}
