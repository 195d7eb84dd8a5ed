package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/middleware"
	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/provision"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string     `json:"token"`
	Holder holderView `json:"holder"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	holder, err := s.authenticator.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.jwtManager.Generate(holder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Holder: viewOf(holder)})
}

// isStaff reports whether the role may act on other holders' records.
func isStaff(role string) bool {
	switch role {
	case models.RoleTeller, models.RoleManager, models.RoleAdmin:
		return true
	}
	return false
}

// authorizeHolder allows access when the request targets the authenticated
// holder or the caller is staff.
func authorizeHolder(r *http.Request, holderID int64) error {
	if middleware.GetHolderID(r.Context()) == holderID || isStaff(middleware.GetRole(r.Context())) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot act on other holders", provision.ErrNotPermitted, middleware.GetRole(r.Context()))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad holder id", ledger.ErrHolderNotFound)
	}
	return id, nil
}

type transferRequest struct {
	FromHolderID int64   `json:"from_holder_id,omitempty"`
	FromAccount  string  `json:"from_account"`
	ToHolderID   int64   `json:"to_holder_id"`
	ToAccount    string  `json:"to_account"`
	Amount       float64 `json:"amount"`
	Details      string  `json:"details"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	srcHolderID := middleware.GetHolderID(r.Context())
	if req.FromHolderID != 0 && req.FromHolderID != srcHolderID {
		if !isStaff(middleware.GetRole(r.Context())) {
			writeError(w, fmt.Errorf("%w: cannot transfer from another holder's account", provision.ErrNotPermitted))
			return
		}
		srcHolderID = req.FromHolderID
	}

	if err := s.executor.Transfer(r.Context(), srcHolderID, req.FromAccount, req.ToHolderID, req.ToAccount, req.Amount, req.Details); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, srcHolderID)
}

type cashRequest struct {
	HolderID     int64   `json:"holder_id,omitempty"`
	Account      string  `json:"account"`
	Amount       float64 `json:"amount"`
	Counterparty string  `json:"counterparty"`
	Details      string  `json:"details"`
}

func (s *Server) cashHolderID(r *http.Request, requested int64) (int64, error) {
	holderID := middleware.GetHolderID(r.Context())
	if requested != 0 && requested != holderID {
		if !isStaff(middleware.GetRole(r.Context())) {
			return 0, fmt.Errorf("%w: cannot operate on another holder's account", provision.ErrNotPermitted)
		}
		holderID = requested
	}
	return holderID, nil
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	holderID, err := s.cashHolderID(r, req.HolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.executor.Withdraw(r.Context(), holderID, req.Account, req.Amount, req.Counterparty, req.Details); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, holderID)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	holderID, err := s.cashHolderID(r, req.HolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.executor.Deposit(r.Context(), holderID, req.Account, req.Amount, req.Counterparty, req.Details); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, holderID)
}

func (s *Server) writeHolder(w http.ResponseWriter, holderID int64) {
	holder, ok := s.store.ByID(holderID)
	if !ok {
		writeError(w, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(holder))
}

func (s *Server) handleListHolders(w http.ResponseWriter, r *http.Request) {
	if !isStaff(middleware.GetRole(r.Context())) {
		writeError(w, fmt.Errorf("%w: listing holders requires a staff role", provision.ErrNotPermitted))
		return
	}
	holders := s.store.All()
	if role := r.URL.Query().Get("role"); role != "" {
		holders = ledger.HoldersByRole(holders, role)
	}
	writeJSON(w, http.StatusOK, viewsOf(holders))
}

func (s *Server) handleGetHolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, id)
}

type createHolderRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *Server) handleCreateHolder(w http.ResponseWriter, r *http.Request) {
	var req createHolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	created, err := s.provisioner.CreateHolder(r.Context(), middleware.GetRole(r.Context()), models.AccountHolder{
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(created))
}

func (s *Server) handleRemoveHolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.provisioner.RemoveHolder(r.Context(), middleware.GetRole(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.provisioner.AssignRole(r.Context(), middleware.GetRole(r.Context()), id, req.Role); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, id)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// Password changes always require the current password, so only the
	// holder themselves can change it.
	if middleware.GetHolderID(r.Context()) != id {
		writeError(w, fmt.Errorf("%w: cannot change another holder's password", provision.ErrNotPermitted))
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.authenticator.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateDetailsRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.provisioner.UpdateDetails(r.Context(), id, req.Username, req.Name, req.Email); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, id)
}

type openAccountRequest struct {
	Number         string  `json:"number"`
	Type           string  `json:"type"`
	OpeningBalance float64 `json:"opening_balance"`
}

func (s *Server) handleOpenAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.provisioner.OpenAccount(r.Context(), id, req.Number, req.Type, req.OpeningBalance); err != nil {
		writeError(w, err)
		return
	}
	s.writeHolder(w, id)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.lookupAccount(id, r.PathValue("number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleCloseAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.provisioner.CloseAccount(r.Context(), id, r.PathValue("number")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := authorizeHolder(r, id); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.lookupAccount(id, r.PathValue("number"))
	if err != nil {
		writeError(w, err)
		return
	}

	from, err := dateParam(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	entries := ledger.EntriesBetween(account, from, to)
	if entries == nil {
		entries = []models.TransactionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) lookupAccount(holderID int64, number string) (models.Account, error) {
	holder, ok := s.store.ByID(holderID)
	if !ok {
		return models.Account{}, fmt.Errorf("%w: %d", ledger.ErrHolderNotFound, holderID)
	}
	account, ok := ledger.FindAccount(&holder, number)
	if !ok {
		return models.Account{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, number)
	}
	return account, nil
}

// dateParam parses a YYYYMMDD query parameter. Absent means an open bound.
func dateParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s date %q", name, raw)
	}
	return v, nil
}
