package models

// Common account type tags. The snapshot field is free-form; these are the
// values seeded snapshots use.
const (
	AccountChecking = "checking"
	AccountSavings  = "savings"
	AccountCard     = "card"
)

// Account is a numbered balance with an append-only transaction history.
// The invariant `Balance == opening balance + sum of entry amounts` is
// maintained by the ledger executor, never by the type itself.
type Account struct {
	// Number identifies the account, unique across the whole store.
	Number string `json:"number"`

	// Type is the account type tag (see Account* constants).
	Type string `json:"type"`

	// Balance is the current balance. Decimal in the snapshot.
	Balance float64 `json:"balance"`

	// Transactions is the ordered, append-only entry history.
	Transactions []TransactionEntry `json:"transactions"`
}

// WithBalance returns a copy of the account with the given balance.
func (a Account) WithBalance(balance float64) Account {
	a.Transactions = append([]TransactionEntry(nil), a.Transactions...)
	a.Balance = balance
	return a
}

// WithTransactions returns a copy of the account with the given entry list.
func (a Account) WithTransactions(entries []TransactionEntry) Account {
	a.Transactions = append([]TransactionEntry(nil), entries...)
	return a
}

// Applied returns a copy of the account with the entry appended and the
// balance shifted by the entry amount. Every balance change the executor
// makes goes through here, which is what keeps the balance invariant true.
func (a Account) Applied(entry TransactionEntry) Account {
	entries := make([]TransactionEntry, len(a.Transactions), len(a.Transactions)+1)
	copy(entries, a.Transactions)
	a.Transactions = append(entries, entry)
	a.Balance += entry.Amount
	return a
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	a.Transactions = append([]TransactionEntry(nil), a.Transactions...)
	return a
}
