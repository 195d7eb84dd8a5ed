package models

// Role tags carried by account holders. The field is a free-form string in
// the snapshot format; these are the values the provisioning rules know.
const (
	RoleCustomer = "CUSTOMER"
	RoleTeller   = "TELLER"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

// AccountHolder is a customer or staff member owning zero or more accounts.
// The account list is in display order; the order carries no other meaning.
type AccountHolder struct {
	// ID is the numeric identity of the holder, unique across the store.
	ID int64 `json:"id"`

	// Username is the login name, unique by convention (enforced by
	// provisioning, not by the store).
	Username string `json:"username"`

	// Name is the display name.
	Name string `json:"name"`

	// Role is the holder's role tag (see Role* constants).
	Role string `json:"role"`

	// Password is the stored credential. Checks are plaintext equality,
	// inherited behavior; the value round-trips through the snapshot as
	// entered.
	Password string `json:"password"`

	// Email is the contact address.
	Email string `json:"email"`

	// Accounts is the holder's ordered account list.
	Accounts []Account `json:"accounts"`
}

// WithAccounts returns a copy of the holder with the given account list.
// The slice is copied; the receiver is not modified.
func (h AccountHolder) WithAccounts(accounts []Account) AccountHolder {
	h.Accounts = append([]Account(nil), accounts...)
	return h
}

// WithAccountReplaced returns a copy of the holder in which the account with
// updated.Number is replaced by updated. Holders with no such account are
// returned unchanged (the caller is expected to have located the account
// first).
func (h AccountHolder) WithAccountReplaced(updated Account) AccountHolder {
	accounts := append([]Account(nil), h.Accounts...)
	for i := range accounts {
		if accounts[i].Number == updated.Number {
			accounts[i] = updated
			break
		}
	}
	h.Accounts = accounts
	return h
}

// WithPassword returns a copy of the holder with only the password changed.
func (h AccountHolder) WithPassword(password string) AccountHolder {
	h.Accounts = append([]Account(nil), h.Accounts...)
	h.Password = password
	return h
}

// WithRole returns a copy of the holder with only the role changed.
func (h AccountHolder) WithRole(role string) AccountHolder {
	h.Accounts = append([]Account(nil), h.Accounts...)
	h.Role = role
	return h
}

// WithDetails returns a copy of the holder with username, display name and
// email replaced.
func (h AccountHolder) WithDetails(username, name, email string) AccountHolder {
	h.Accounts = append([]Account(nil), h.Accounts...)
	h.Username = username
	h.Name = name
	h.Email = email
	return h
}

// Clone returns a deep copy of the holder, safe to hand to callers.
func (h AccountHolder) Clone() AccountHolder {
	accounts := make([]Account, len(h.Accounts))
	for i, a := range h.Accounts {
		accounts[i] = a.Clone()
	}
	h.Accounts = accounts
	return h
}

// CloneAll deep-copies a holder list.
func CloneAll(holders []AccountHolder) []AccountHolder {
	out := make([]AccountHolder, len(holders))
	for i, h := range holders {
		out[i] = h.Clone()
	}
	return out
}
