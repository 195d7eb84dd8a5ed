// Package auth implements credential checks and session tokens for the
// boundary layer.
//
// Credential checks are plaintext equality against the stored password —
// inherited behavior, kept as-is; only the comparison is constant-time. The
// password field round-trips through the snapshot exactly as entered.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/models"
)

var (
	// ErrInvalidCredentials reports a failed login or password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator checks holder credentials against the ledger store. It reads
// holder records and mutates them only through the explicit password-change
// operation.
type Authenticator struct {
	store *ledger.Store
}

// NewAuthenticator creates an authenticator over the given store.
func NewAuthenticator(store *ledger.Store) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate verifies a username/password pair and returns the holder.
func (a *Authenticator) Authenticate(username, password string) (models.AccountHolder, error) {
	for _, h := range a.store.All() {
		if h.Username == username && passwordsMatch(h.Password, password) {
			return h, nil
		}
	}
	return models.AccountHolder{}, ErrInvalidCredentials
}

// AuthenticateByID verifies an id/password pair and returns the holder.
func (a *Authenticator) AuthenticateByID(id int64, password string) (models.AccountHolder, error) {
	h, ok := a.store.ByID(id)
	if !ok || !passwordsMatch(h.Password, password) {
		return models.AccountHolder{}, ErrInvalidCredentials
	}
	return h, nil
}

// UsernameExists reports whether any holder carries the username.
func (a *Authenticator) UsernameExists(username string) bool {
	for _, h := range a.store.All() {
		if h.Username == username {
			return true
		}
	}
	return false
}

// ChangePassword verifies the current password and commits a replacement
// holder with only the password field changed. Verify and commit run inside
// one store critical section so a concurrent balance mutation is never
// overwritten by the stale holder.
func (a *Authenticator) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return a.store.Update(ctx, func(holders []models.AccountHolder) ([]models.AccountHolder, error) {
		h, ok := ledger.FindHolder(holders, id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, id)
		}
		if !passwordsMatch(h.Password, current) {
			return nil, ErrInvalidCredentials
		}
		return []models.AccountHolder{h.WithPassword(next)}, nil
	})
}

func passwordsMatch(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
