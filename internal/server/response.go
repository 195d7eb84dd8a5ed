package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mertab/minibank/internal/auth"
	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/provision"
	"github.com/mertab/minibank/internal/storage"
)

// holderView is the outward shape of an account holder. The password never
// leaves the server.
type holderView struct {
	ID       int64            `json:"id"`
	Username string           `json:"username"`
	Name     string           `json:"name"`
	Role     string           `json:"role"`
	Email    string           `json:"email"`
	Accounts []models.Account `json:"accounts"`
}

func viewOf(h models.AccountHolder) holderView {
	return holderView{
		ID:       h.ID,
		Username: h.Username,
		Name:     h.Name,
		Role:     h.Role,
		Email:    h.Email,
		Accounts: h.Accounts,
	}
}

func viewsOf(holders []models.AccountHolder) []holderView {
	views := make([]holderView, len(holders))
	for i, h := range holders {
		views[i] = viewOf(h)
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorBody{Error: err.Error()})
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, provision.ErrUnknownRole),
		errors.Is(err, provision.ErrUnknownAccountType):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, provision.ErrNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrHolderNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrDuplicateHolderID),
		errors.Is(err, ledger.ErrDuplicateAccountNumber),
		errors.Is(err, provision.ErrUsernameTaken),
		errors.Is(err, provision.ErrAccountNotEmpty):
		return http.StatusConflict
	case errors.Is(err, storage.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
