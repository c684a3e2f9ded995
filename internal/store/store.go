package store

import (
	"context"
	"errors"
	"time"

	"topup-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the persistence gateway.
var (
	// ErrDuplicateTransaction means the external transaction id was already
	// consumed by a previous credit. Expected under racing watchers, never a
	// failure.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrConcurrentModification means an optimistic balance update lost its
	// race and the whole credit was rolled back.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrRequestNotFound = errors.New("pending request not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrPendingRequestExists means the user already has an outstanding
	// request of the same kind.
	ErrPendingRequestExists = errors.New("pending request already exists for user")
)

// CreateRequestParams contains the parameters for creating a pending request.
type CreateRequestParams struct {
	UserId    string
	Kind      string
	Amount    decimal.Decimal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CreditParams contains the parameters for the atomic credit operation.
type CreditParams struct {
	UserId        string
	ExternalTxId  string
	Amount        decimal.Decimal
	DisplayAmount decimal.Decimal
}

// RequestStore is the persistence gateway for pending requests, the top-up
// ledger, and user balances.
type RequestStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name string) (*models.User, error)

	// --- Pending requests ---
	CreateRequest(ctx context.Context, params CreateRequestParams) (*models.PendingRequest, error)
	FindRequest(ctx context.Context, id string) (*models.PendingRequest, error)
	FindPendingByUser(ctx context.Context, userId, kind string) (*models.PendingRequest, error)
	ListPending(ctx context.Context, kind string) ([]models.PendingRequest, error)
	DeleteRequest(ctx context.Context, id string) error

	// --- Ledger ---
	// CreditAndRecord increments the user's balance and appends the ledger
	// entry in one transaction. The unique index on the external transaction
	// id is the double-credit guard: a second call with the same id returns
	// ErrDuplicateTransaction and leaves the balance untouched.
	CreditAndRecord(ctx context.Context, params CreditParams) (*models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context, userId string, limit int) ([]models.LedgerEntry, error)

	// --- Lifecycle ---
	Close()
}
