// Package server exposes the ledger over an HTTP/JSON API.
package server

import (
	"net/http"

	"github.com/mertab/minibank/internal/auth"
	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/middleware"
	"github.com/mertab/minibank/internal/provision"
)

// Server wires the domain services behind the HTTP routes.
type Server struct {
	store         *ledger.Store
	executor      *ledger.Executor
	authenticator *auth.Authenticator
	jwtManager    *auth.JWTManager
	provisioner   *provision.Service
}

// New creates a server over the given services.
func New(
	store *ledger.Store,
	executor *ledger.Executor,
	authenticator *auth.Authenticator,
	jwtManager *auth.JWTManager,
	provisioner *provision.Service,
) *Server {
	return &Server{
		store:         store,
		executor:      executor,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		provisioner:   provisioner,
	}
}

// Handler builds the routing table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	authed := http.NewServeMux()
	authed.HandleFunc("POST /api/v1/transfer", s.handleTransfer)
	authed.HandleFunc("POST /api/v1/withdraw", s.handleWithdraw)
	authed.HandleFunc("POST /api/v1/deposit", s.handleDeposit)
	authed.HandleFunc("GET /api/v1/holders", s.handleListHolders)
	authed.HandleFunc("POST /api/v1/holders", s.handleCreateHolder)
	authed.HandleFunc("GET /api/v1/holders/{id}", s.handleGetHolder)
	authed.HandleFunc("DELETE /api/v1/holders/{id}", s.handleRemoveHolder)
	authed.HandleFunc("PUT /api/v1/holders/{id}/role", s.handleAssignRole)
	authed.HandleFunc("PUT /api/v1/holders/{id}/password", s.handleChangePassword)
	authed.HandleFunc("PUT /api/v1/holders/{id}/details", s.handleUpdateDetails)
	authed.HandleFunc("POST /api/v1/holders/{id}/accounts", s.handleOpenAccount)
	authed.HandleFunc("GET /api/v1/holders/{id}/accounts/{number}", s.handleGetAccount)
	authed.HandleFunc("DELETE /api/v1/holders/{id}/accounts/{number}", s.handleCloseAccount)
	authed.HandleFunc("GET /api/v1/holders/{id}/accounts/{number}/transactions", s.handleListTransactions)

	requireAuth := middleware.RequireAuth(s.jwtManager, func(w http.ResponseWriter, err error) {
		writeError(w, err)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/api/v1/", requireAuth(authed))

	return middleware.RequestID(middleware.Logging(mux))
}
