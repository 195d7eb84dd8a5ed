// Package provision implements administrative management of holders and
// accounts: creating holders, opening and closing accounts, and changing
// roles. Every operation is gated on the acting holder's role.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/models"
)

var (
	// ErrNotPermitted reports that the acting role may not perform the
	// operation.
	ErrNotPermitted = errors.New("operation not permitted for role")
	// ErrUsernameTaken reports a holder creation with a username already in
	// use.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAccountNotEmpty reports an attempt to close an account that still
	// carries a balance.
	ErrAccountNotEmpty = errors.New("account balance must be zero to close")
	// ErrUnknownRole reports a role outside the defined set.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownAccountType reports an account type outside the defined set.
	ErrUnknownAccountType = errors.New("unknown account type")
)

// Service performs holder and account provisioning against the ledger store.
type Service struct {
	store *ledger.Store
}

// NewService creates a provisioning service over the given store.
func NewService(store *ledger.Store) *Service {
	return &Service{store: store}
}

// canCreate reports whether actorRole may create a holder with newRole.
// Admins can create any role; tellers can only enroll customers.
func canCreate(actorRole, newRole string) bool {
	switch actorRole {
	case models.RoleAdmin:
		return true
	case models.RoleTeller, models.RoleManager:
		return newRole == models.RoleCustomer
	default:
		return false
	}
}

func validRole(role string) bool {
	switch role {
	case models.RoleCustomer, models.RoleTeller, models.RoleManager, models.RoleAdmin:
		return true
	}
	return false
}

func validAccountType(accountType string) bool {
	switch accountType {
	case models.AccountChecking, models.AccountSavings, models.AccountCard:
		return true
	}
	return false
}

// CreateHolder enrolls a new account holder. The store assigns the ID when
// the holder carries none.
func (s *Service) CreateHolder(ctx context.Context, actorRole string, holder models.AccountHolder) (models.AccountHolder, error) {
	if !validRole(holder.Role) {
		return models.AccountHolder{}, fmt.Errorf("%w: %q", ErrUnknownRole, holder.Role)
	}
	if !canCreate(actorRole, holder.Role) {
		return models.AccountHolder{}, fmt.Errorf("%w: %s cannot create %s", ErrNotPermitted, actorRole, holder.Role)
	}
	for _, h := range s.store.All() {
		if h.Username == holder.Username {
			return models.AccountHolder{}, fmt.Errorf("%w: %q", ErrUsernameTaken, holder.Username)
		}
	}
	return s.store.Add(ctx, holder)
}

// OpenAccount adds an account to the holder with the given opening balance.
// An opening deposit is recorded as the account's first entry.
func (s *Service) OpenAccount(ctx context.Context, holderID int64, number, accountType string, openingBalance float64) error {
	if !validAccountType(accountType) {
		return fmt.Errorf("%w: %q", ErrUnknownAccountType, accountType)
	}
	if openingBalance < 0 {
		return fmt.Errorf("%w: opening balance %.2f", ledger.ErrInvalidAmount, openingBalance)
	}
	return s.store.Update(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, holderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
		}
		acct := models.Account{Number: number, Type: accountType, Balance: openingBalance}
		return []models.AccountHolder{h.WithAccounts(append(h.Accounts, acct))}, nil
	})
}

// CloseAccount removes the account from the holder. Only zero-balance
// accounts can be closed. Closing a holder's last account removes the holder
// from the store. The balance check and the removal run inside one store
// critical section, so a deposit landing between them can neither be lost
// nor leave funds on a closed account.
func (s *Service) CloseAccount(ctx context.Context, holderID int64, number string) error {
	return s.store.Rewrite(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, holderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
		}
		acct, ok := ledger.FindAccount(&h, number)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, number)
		}
		if acct.Balance != 0 {
			return nil, fmt.Errorf("%w: %s holds %.2f", ErrAccountNotEmpty, number, acct.Balance)
		}

		kept := make([]models.Account, 0, len(h.Accounts)-1)
		for _, a := range h.Accounts {
			if a.Number != number {
				kept = append(kept, a)
			}
		}

		table := make([]models.AccountHolder, 0, len(holders))
		for _, other := range holders {
			switch {
			case other.ID != holderID:
				table = append(table, other)
			case len(kept) > 0:
				table = append(table, other.WithAccounts(kept))
			}
		}
		return table, nil
	})
}

// AssignRole changes a holder's role. Only admins may assign roles.
func (s *Service) AssignRole(ctx context.Context, actorRole string, holderID int64, role string) error {
	if actorRole != models.RoleAdmin {
		return fmt.Errorf("%w: %s cannot assign roles", ErrNotPermitted, actorRole)
	}
	if !validRole(role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return s.store.Update(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, holderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
		}
		return []models.AccountHolder{h.WithRole(role)}, nil
	})
}

// UpdateDetails changes a holder's username, display name, and email. A
// changed username must remain unique.
func (s *Service) UpdateDetails(ctx context.Context, holderID int64, username, name, email string) error {
	return s.store.Update(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, holderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
		}
		for _, other := range holders {
			if other.ID != holderID && other.Username == username {
				return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
			}
		}
		return []models.AccountHolder{h.WithDetails(username, name, email)}, nil
	})
}

// RemoveHolder deletes a holder outright. Only admins may remove holders,
// and every account must be empty first. The emptiness check and the
// removal run inside one store critical section.
func (s *Service) RemoveHolder(ctx context.Context, actorRole string, holderID int64) error {
	if actorRole != models.RoleAdmin {
		return fmt.Errorf("%w: %s cannot remove holders", ErrNotPermitted, actorRole)
	}
	return s.store.Rewrite(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, holderID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
		}
		for _, a := range h.Accounts {
			if a.Balance != 0 {
				return nil, fmt.Errorf("%w: %s holds %.2f", ErrAccountNotEmpty, a.Number, a.Balance)
			}
		}

		table := make([]models.AccountHolder, 0, len(holders)-1)
		for _, other := range holders {
			if other.ID != holderID {
				table = append(table, other)
			}
		}
		return table, nil
	})
}
