package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"github.com/shopspring/decimal"
)

func newTopUpParams(userId string, amount decimal.Decimal) store.CreateRequestParams {
	now := time.Now().UTC()
	return store.CreateRequestParams{
		UserId:    userId,
		Kind:      models.KindTopUp,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestCreateRequest_Roundtrip(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	created, err := service.CreateRequest(ctx, newTopUpParams("user1", decimal.NewFromFloat(12.34)))
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if created.Id == "" {
		t.Fatal("Expected generated request id")
	}

	found, err := service.FindRequest(ctx, created.Id)
	if err != nil {
		t.Fatalf("FindRequest failed: %v", err)
	}
	if found.UserId != "user1" || found.Kind != models.KindTopUp {
		t.Errorf("Unexpected request: %+v", found)
	}
	if !found.Amount.Equal(decimal.NewFromFloat(12.34)) {
		t.Errorf("Expected amount 12.34, got %s", found.Amount.String())
	}
	if !found.ExpiresAt.After(found.CreatedAt) {
		t.Errorf("Expected expiry after creation, got created=%v expires=%v",
			found.CreatedAt, found.ExpiresAt)
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	cases := []struct {
		name   string
		params store.CreateRequestParams
	}{
		{"empty user", store.CreateRequestParams{
			Kind: models.KindTopUp, Amount: decimal.NewFromInt(1),
			CreatedAt: now, ExpiresAt: now.Add(time.Minute),
		}},
		{"invalid kind", store.CreateRequestParams{
			UserId: "user1", Kind: "transfer", Amount: decimal.NewFromInt(1),
			CreatedAt: now, ExpiresAt: now.Add(time.Minute),
		}},
		{"non-positive amount", store.CreateRequestParams{
			UserId: "user1", Kind: models.KindTopUp, Amount: decimal.Zero,
			CreatedAt: now, ExpiresAt: now.Add(time.Minute),
		}},
		{"expiry before creation", store.CreateRequestParams{
			UserId: "user1", Kind: models.KindTopUp, Amount: decimal.NewFromInt(1),
			CreatedAt: now, ExpiresAt: now.Add(-time.Minute),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.CreateRequest(ctx, tc.params); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestFindRequest_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.FindRequest(context.Background(), "missing")
	if !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound, got %v", err)
	}
}

func TestFindPendingByUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := service.FindPendingByUser(ctx, "user1", models.KindTopUp)
	if !errors.Is(err, store.ErrRequestNotFound) {
		t.Fatalf("Expected ErrRequestNotFound for empty table, got %v", err)
	}

	created, err := service.CreateRequest(ctx, newTopUpParams("user1", decimal.NewFromInt(7)))
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	found, err := service.FindPendingByUser(ctx, "user1", models.KindTopUp)
	if err != nil {
		t.Fatalf("FindPendingByUser failed: %v", err)
	}
	if found.Id != created.Id {
		t.Errorf("Expected request %s, got %s", created.Id, found.Id)
	}

	// Other users and other kinds stay invisible.
	if _, err := service.FindPendingByUser(ctx, "user2", models.KindTopUp); !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound for user2, got %v", err)
	}
	if _, err := service.FindPendingByUser(ctx, "user1", models.KindPayout); !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound for payout kind, got %v", err)
	}
}

func TestListPending_FiltersByKind(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := service.CreateRequest(ctx, newTopUpParams("user1", decimal.NewFromInt(1))); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if _, err := service.CreateRequest(ctx, newTopUpParams("user2", decimal.NewFromInt(2))); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	payout := newTopUpParams("user2", decimal.NewFromInt(3))
	payout.Kind = models.KindPayout
	if _, err := service.CreateRequest(ctx, payout); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	topups, err := service.ListPending(ctx, models.KindTopUp)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(topups) != 2 {
		t.Errorf("Expected 2 pending top-ups, got %d", len(topups))
	}
	for _, r := range topups {
		if r.Kind != models.KindTopUp {
			t.Errorf("Expected only top-up requests, got kind %s", r.Kind)
		}
	}
}

func TestDeleteRequest(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	created, err := service.CreateRequest(ctx, newTopUpParams("user1", decimal.NewFromInt(4)))
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := service.DeleteRequest(ctx, created.Id); err != nil {
		t.Fatalf("DeleteRequest failed: %v", err)
	}

	if _, err := service.FindRequest(ctx, created.Id); !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected request gone after delete, got %v", err)
	}

	if err := service.DeleteRequest(ctx, created.Id); !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound on second delete, got %v", err)
	}
}
