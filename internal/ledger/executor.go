package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mertab/minibank/internal/metrics"
	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/storage"
)

// Executor performs the validated money movements: internal transfers,
// external withdrawals and external deposits. Every operation follows the
// same shape — validate, locate, compute, apply, persist — and is
// all-or-nothing: any failure, including a failed snapshot write, leaves
// both the in-memory table and the persisted snapshot untouched.
type Executor struct {
	store *Store
	now   func() time.Time
}

// NewExecutor creates an executor over the given store.
func NewExecutor(store *Store) *Executor {
	return &Executor{store: store, now: time.Now}
}

// Transfer moves amount from one holder's account to another's, appending a
// debit entry on the source side and a credit entry on the destination side.
// Both entries share date, details and magnitude with opposite signs and
// swapped counterparty fields. Source and destination may belong to the same
// holder; the holder is then committed as a single update.
func (e *Executor) Transfer(ctx context.Context, srcHolderID int64, srcNumber string, dstHolderID int64, dstNumber string, amount float64, details string) error {
	err := e.run(ctx, "transfer", func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		if amount <= 0 {
			return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
		}
		if srcHolderID == dstHolderID && srcNumber == dstNumber {
			return nil, fmt.Errorf("%w: %s", ErrSameAccount, srcNumber)
		}

		src, ok := FindHolder(holders, srcHolderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrHolderNotFound, srcHolderID)
		}
		dst, ok := FindHolder(holders, dstHolderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrHolderNotFound, dstHolderID)
		}
		srcAcct, ok := FindAccount(&src, srcNumber)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, srcNumber)
		}
		dstAcct, ok := FindAccount(&dst, dstNumber)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, dstNumber)
		}
		if srcAcct.Balance < amount {
			return nil, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientFunds, srcAcct.Balance, amount)
		}

		date := models.DateStamp(e.now())
		debit := models.TransactionEntry{
			Date:          date,
			Amount:        -amount,
			Details:       details,
			ToAccount:     dstNumber,
			FromAccount:   srcNumber,
			RecipientID:   dst.ID,
			RecipientName: dst.Name,
		}
		credit := models.TransactionEntry{
			Date:          date,
			Amount:        amount,
			Details:       details,
			ToAccount:     dstNumber,
			FromAccount:   srcNumber,
			RecipientID:   src.ID,
			RecipientName: src.Name,
		}

		if src.ID == dst.ID {
			// Self-transfer between two of the holder's accounts: fold both
			// replacements into one holder value so the table sees a single
			// update.
			updated := src.WithAccountReplaced(srcAcct.Applied(debit))
			updated = updated.WithAccountReplaced(dstAcct.Applied(credit))
			return []models.AccountHolder{updated}, nil
		}
		return []models.AccountHolder{
			src.WithAccountReplaced(srcAcct.Applied(debit)),
			dst.WithAccountReplaced(dstAcct.Applied(credit)),
		}, nil
	})
	if err != nil {
		slog.Warn("transfer failed",
			"source_holder", srcHolderID, "source_account", srcNumber,
			"dest_holder", dstHolderID, "dest_account", dstNumber,
			"amount", amount, "error", err,
		)
		return err
	}
	slog.Info("transfer completed",
		"source_account", srcNumber, "dest_account", dstNumber, "amount", amount)
	return nil
}

// Withdraw moves amount out of the account to an external counterparty,
// appending one negative entry with no counterparty holder id.
func (e *Executor) Withdraw(ctx context.Context, holderID int64, number string, amount float64, recipientName, details string) error {
	err := e.run(ctx, "withdraw", func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		if amount <= 0 {
			return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
		}
		holder, acct, err := locateForUpdate(holders, holderID, number)
		if err != nil {
			return nil, err
		}
		if acct.Balance < amount {
			return nil, fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientFunds, acct.Balance, amount)
		}

		entry := models.TransactionEntry{
			Date:          models.DateStamp(e.now()),
			Amount:        -amount,
			Details:       details,
			ToAccount:     models.ExternalAccount,
			FromAccount:   number,
			RecipientID:   models.ExternalRecipientID,
			RecipientName: recipientName,
		}
		return []models.AccountHolder{holder.WithAccountReplaced(acct.Applied(entry))}, nil
	})
	if err != nil {
		slog.Warn("withdrawal failed", "holder", holderID, "account", number, "amount", amount, "error", err)
		return err
	}
	slog.Info("withdrawal completed", "account", number, "amount", amount, "recipient", recipientName)
	return nil
}

// Deposit moves amount into the account from an external counterparty,
// appending one positive entry. Deposits always succeed when well-formed.
func (e *Executor) Deposit(ctx context.Context, holderID int64, number string, amount float64, senderName, details string) error {
	err := e.run(ctx, "deposit", func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		if amount <= 0 {
			return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
		}
		holder, acct, err := locateForUpdate(holders, holderID, number)
		if err != nil {
			return nil, err
		}

		entry := models.TransactionEntry{
			Date:          models.DateStamp(e.now()),
			Amount:        amount,
			Details:       details,
			ToAccount:     number,
			FromAccount:   models.ExternalAccount,
			RecipientID:   models.ExternalRecipientID,
			RecipientName: senderName,
		}
		return []models.AccountHolder{holder.WithAccountReplaced(acct.Applied(entry))}, nil
	})
	if err != nil {
		slog.Warn("deposit failed", "holder", holderID, "account", number, "amount", amount, "error", err)
		return err
	}
	slog.Info("deposit completed", "account", number, "amount", amount, "sender", senderName)
	return nil
}

// run executes one operation through the store's critical section and
// records its outcome.
func (e *Executor) run(ctx context.Context, op string, fn func([]models.AccountHolder) ([]models.AccountHolder, error)) error {
	err := e.store.Update(ctx, fn)
	metrics.TransactionsTotal.WithLabelValues(op, outcome(err)).Inc()
	return err
}

func locateForUpdate(holders []models.AccountHolder, holderID int64, number string) (models.AccountHolder, models.Account, error) {
	holder, ok := FindHolder(holders, holderID)
	if !ok {
		return models.AccountHolder{}, models.Account{}, fmt.Errorf("%w: %d", ErrHolderNotFound, holderID)
	}
	acct, ok := FindAccount(&holder, number)
	if !ok {
		return models.AccountHolder{}, models.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, number)
	}
	return holder, acct, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSameAccount):
		return "invalid_amount"
	case errors.Is(err, ErrHolderNotFound):
		return "holder_not_found"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, storage.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}
