package models

import "time"

// ExternalAccount is the account reference recorded on the external side of
// a withdrawal or deposit, where no in-store account exists.
const ExternalAccount = "0"

// ExternalRecipientID is the counterparty holder id recorded when the
// counterparty is not a holder in the store.
const ExternalRecipientID int64 = 0

// TransactionEntry is one immutable record of a balance change. A negative
// amount is an outflow, a positive amount an inflow. A transfer produces
// exactly two entries sharing date, details and amount magnitude, with
// opposite signs and swapped counterparty fields.
type TransactionEntry struct {
	// Date is the day of the entry as a YYYYMMDD integer.
	Date int64 `json:"date"`

	// Amount is the signed balance change.
	Amount float64 `json:"amount"`

	// Details is the free-text description shared by both sides of a
	// transfer.
	Details string `json:"details"`

	// ToAccount and FromAccount reference the destination and source
	// account numbers; ExternalAccount marks the external side.
	ToAccount   string `json:"to_account"`
	FromAccount string `json:"from_account"`

	// RecipientID is the counterparty holder id, ExternalRecipientID for
	// non-holder counterparties.
	RecipientID int64 `json:"recipient_id"`

	// RecipientName is the counterparty display name.
	RecipientName string `json:"recipient_name"`
}

// DateStamp converts a time to the YYYYMMDD integer used on entries.
func DateStamp(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
