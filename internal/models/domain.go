package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request kinds. Only topup requests are reconciled against the transfer
// feed; payout requests are handled by the withdrawal flow.
const (
	KindTopUp  = "topup"
	KindPayout = "payout"
)

// User represents a user in the system
type User struct {
	Id        string          `db:"id"`
	Name      string          `db:"name"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// PendingRequest is a user's declared intent to deposit (or withdraw) a
// specific settlement-asset amount. It exists only while unresolved: a
// matched or expired request is deleted, never updated.
type PendingRequest struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Kind      string          `db:"kind"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
	ExpiresAt time.Time       `db:"expires_at"`
}

// Expired reports whether the request has reached its expiry at the given
// instant. The boundary itself counts as expired.
func (r PendingRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// LedgerEntry is an immutable receipt of a completed, credited top-up.
// ExternalTxId is the on-chain transaction id and is unique across all time.
type LedgerEntry struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	ExternalTxId  string          `db:"external_transaction_id"`
	Amount        decimal.Decimal `db:"amount"`
	DisplayAmount decimal.Decimal `db:"display_amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
}

// TopUpResult represents the outcome of creating a top-up request
type TopUpResult struct {
	Success bool            `json:"success"`
	Request *PendingRequest `json:"request,omitempty"`
	Error   string          `json:"error,omitempty"`
}
