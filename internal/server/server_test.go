package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mertab/minibank/internal/auth"
	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/provision"
	"github.com/mertab/minibank/internal/storage/snapshotfile"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	snap, err := snapshotfile.New(filepath.Join(t.TempDir(), "holders.json"))
	if err != nil {
		t.Fatal(err)
	}
	template := []models.AccountHolder{
		{ID: 1, Username: "root", Name: "Root", Role: models.RoleAdmin, Password: "toor"},
		{ID: 2, Username: "ada", Name: "Ada", Role: models.RoleCustomer, Password: "pw", Accounts: []models.Account{
			{Number: "100", Type: models.AccountChecking, Balance: 500.0},
		}},
		{ID: 3, Username: "bob", Name: "Bob", Role: models.RoleCustomer, Password: "pw", Accounts: []models.Account{
			{Number: "200", Type: models.AccountChecking, Balance: 100.0},
		}},
	}
	store := ledger.NewStore(snap, template)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	srv := New(
		store,
		ledger.NewExecutor(store),
		auth.NewAuthenticator(store),
		jwtManager,
		provision.NewService(store),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/api/v1/login", "", loginRequest{Username: username, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeHolder(t *testing.T, resp *http.Response) holderView {
	t.Helper()
	defer resp.Body.Close()
	var h holderView
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "ada", Password: "pw"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if out.Token == "" || out.Holder.ID != 2 {
		t.Errorf("login response: %+v", out)
	}

	resp = doJSON(t, ts, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "ada", Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/holders/2", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/api/v1/holders/2", "garbage", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", resp.StatusCode)
	}
}

func TestGetHolderAccessControl(t *testing.T) {
	ts := newTestServer(t)
	adaToken := login(t, ts, "ada", "pw")
	rootToken := login(t, ts, "root", "toor")

	h := decodeHolder(t, doJSON(t, ts, http.MethodGet, "/api/v1/holders/2", adaToken, nil))
	if h.ID != 2 || h.Username != "ada" {
		t.Errorf("self read: %+v", h)
	}

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/holders/3", adaToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer reading other holder: status = %d", resp.StatusCode)
	}

	h = decodeHolder(t, doJSON(t, ts, http.MethodGet, "/api/v1/holders/3", rootToken, nil))
	if h.ID != 3 {
		t.Errorf("staff read: %+v", h)
	}
}

func TestHolderViewHidesPassword(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/holders/2", token, nil)
	defer resp.Body.Close()
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["password"]; ok {
		t.Error("password leaked in holder view")
	}
}

func TestTransfer(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/transfer", token, transferRequest{
		FromAccount: "100", ToHolderID: 3, ToAccount: "200", Amount: 150.0, Details: "rent",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	h := decodeHolder(t, resp)
	if h.Accounts[0].Balance != 350.0 {
		t.Errorf("source balance = %.2f, want 350.00", h.Accounts[0].Balance)
	}

	rootToken := login(t, ts, "root", "toor")
	bob := decodeHolder(t, doJSON(t, ts, http.MethodGet, "/api/v1/holders/3", rootToken, nil))
	if bob.Accounts[0].Balance != 250.0 {
		t.Errorf("destination balance = %.2f, want 250.00", bob.Accounts[0].Balance)
	}
}

func TestTransferFromOtherHolderForbidden(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/transfer", token, transferRequest{
		FromHolderID: 3, FromAccount: "200", ToHolderID: 2, ToAccount: "100", Amount: 50.0,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestTransferErrors(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	tests := []struct {
		name string
		req  transferRequest
		want int
	}{
		{"zero amount", transferRequest{FromAccount: "100", ToHolderID: 3, ToAccount: "200", Amount: 0}, http.StatusBadRequest},
		{"same account", transferRequest{FromAccount: "100", ToHolderID: 2, ToAccount: "100", Amount: 10}, http.StatusBadRequest},
		{"insufficient funds", transferRequest{FromAccount: "100", ToHolderID: 3, ToAccount: "200", Amount: 10000}, http.StatusConflict},
		{"unknown destination", transferRequest{FromAccount: "100", ToHolderID: 42, ToAccount: "200", Amount: 10}, http.StatusNotFound},
		{"unknown account", transferRequest{FromAccount: "999", ToHolderID: 3, ToAccount: "200", Amount: 10}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, ts, http.MethodPost, "/api/v1/transfer", token, tt.req)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestWithdrawAndDeposit(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/withdraw", token, cashRequest{
		Account: "100", Amount: 120.5, Counterparty: "ATM", Details: "cash",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw status = %d", resp.StatusCode)
	}
	h := decodeHolder(t, resp)
	if h.Accounts[0].Balance != 379.5 {
		t.Errorf("balance after withdraw = %.2f, want 379.50", h.Accounts[0].Balance)
	}

	resp = doJSON(t, ts, http.MethodPost, "/api/v1/deposit", token, cashRequest{
		Account: "100", Amount: 20.5, Counterparty: "payroll", Details: "salary",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit status = %d", resp.StatusCode)
	}
	h = decodeHolder(t, resp)
	if h.Accounts[0].Balance != 400.0 {
		t.Errorf("balance after deposit = %.2f, want 400.00", h.Accounts[0].Balance)
	}
}

func TestListTransactions(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	for _, amount := range []float64{10.0, 20.0} {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/withdraw", token, cashRequest{
			Account: "100", Amount: amount, Counterparty: "ATM",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("withdraw status = %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/holders/2/accounts/100/transactions", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var entries []models.TransactionEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Amount != -10.0 || entries[1].Amount != -20.0 {
		t.Errorf("entries: %+v", entries)
	}

	today := models.DateStamp(time.Now())
	resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/v1/holders/2/accounts/100/transactions?from=%d&to=%d", today+1, today+2), token, nil)
	defer resp.Body.Close()
	entries = nil
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("future range should be empty, got %+v", entries)
	}
}

func TestCreateHolder(t *testing.T) {
	ts := newTestServer(t)
	rootToken := login(t, ts, "root", "toor")
	adaToken := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/holders", rootToken, createHolderRequest{
		Username: "carol", Name: "Carol", Role: models.RoleCustomer, Password: "pw",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	created := decodeHolder(t, resp)
	if created.ID != 4 || created.Username != "carol" {
		t.Errorf("created: %+v", created)
	}

	if token := login(t, ts, "carol", "pw"); token == "" {
		t.Error("created holder cannot log in")
	}

	resp = doJSON(t, ts, http.MethodPost, "/api/v1/holders", adaToken, createHolderRequest{
		Username: "mallory", Role: models.RoleCustomer, Password: "pw",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer creating holder: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodPost, "/api/v1/holders", rootToken, createHolderRequest{
		Username: "ada", Role: models.RoleCustomer, Password: "pw",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate username: status = %d", resp.StatusCode)
	}
}

func TestOpenAndCloseAccount(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/holders/2/accounts", token, openAccountRequest{
		Number: "101", Type: models.AccountSavings, OpeningBalance: 0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}
	h := decodeHolder(t, resp)
	if len(h.Accounts) != 2 || h.Accounts[1].Number != "101" {
		t.Errorf("accounts: %+v", h.Accounts)
	}

	resp = doJSON(t, ts, http.MethodPost, "/api/v1/holders/2/accounts", token, openAccountRequest{
		Number: "100", Type: models.AccountSavings,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate number: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodDelete, "/api/v1/holders/2/accounts/101", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("close status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodDelete, "/api/v1/holders/2/accounts/100", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("closing funded account: status = %d", resp.StatusCode)
	}
}

func TestAssignRoleAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	rootToken := login(t, ts, "root", "toor")
	adaToken := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodPut, "/api/v1/holders/3/role", adaToken, assignRoleRequest{Role: models.RoleTeller})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer assigning role: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodPut, "/api/v1/holders/3/role", rootToken, assignRoleRequest{Role: models.RoleTeller})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	h := decodeHolder(t, resp)
	if h.Role != models.RoleTeller {
		t.Errorf("role = %s", h.Role)
	}
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	adaToken := login(t, ts, "ada", "pw")
	rootToken := login(t, ts, "root", "toor")

	resp := doJSON(t, ts, http.MethodPut, "/api/v1/holders/2/password", rootToken, changePasswordRequest{
		CurrentPassword: "pw", NewPassword: "hijacked",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("admin changing another holder's password: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodPut, "/api/v1/holders/2/password", adaToken, changePasswordRequest{
		CurrentPassword: "pw", NewPassword: "newpw",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	if token := login(t, ts, "ada", "newpw"); token == "" {
		t.Error("new password rejected")
	}
}

func TestListHoldersStaffOnly(t *testing.T) {
	ts := newTestServer(t)
	rootToken := login(t, ts, "root", "toor")
	adaToken := login(t, ts, "ada", "pw")

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/holders", adaToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer listing holders: status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/api/v1/holders?role=CUSTOMER", rootToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var holders []holderView
	if err := json.NewDecoder(resp.Body).Decode(&holders); err != nil {
		t.Fatal(err)
	}
	if len(holders) != 2 {
		t.Errorf("customers = %d, want 2", len(holders))
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
