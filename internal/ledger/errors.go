package ledger

import "errors"

// Domain errors surfaced by the store and the executor. Callers distinguish
// failure kinds with errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrInvalidAmount rejects operations with amount <= 0.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrHolderNotFound reports a lookup failure on a holder id.
	ErrHolderNotFound = errors.New("account holder not found")

	// ErrAccountNotFound reports a lookup failure on an account number
	// within a holder's account list.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds rejects a withdrawal-class operation that would
	// make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccount rejects a transfer whose source and destination are
	// the same account.
	ErrSameAccount = errors.New("source and destination accounts are the same")

	// ErrDuplicateHolderID rejects adding a holder whose id is in use.
	ErrDuplicateHolderID = errors.New("holder id already in use")

	// ErrDuplicateAccountNumber rejects any commit that would give two
	// accounts anywhere in the store the same number.
	ErrDuplicateAccountNumber = errors.New("account number already in use")
)
