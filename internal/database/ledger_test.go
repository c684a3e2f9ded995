package database

import (
	"context"
	"errors"
	"testing"

	"topup-reconciler/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreditAndRecord_FirstCredit(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	amount := decimal.NewFromFloat(25.5)

	entry, err := service.CreditAndRecord(ctx, store.CreditParams{
		UserId:        "user1",
		ExternalTxId:  "tx-001",
		Amount:        amount,
		DisplayAmount: decimal.NewFromFloat(25.49),
	})
	if err != nil {
		t.Fatalf("CreditAndRecord failed: %v", err)
	}

	if !entry.BalanceBefore.Equal(decimal.Zero) {
		t.Errorf("Expected balance before 0, got %s", entry.BalanceBefore.String())
	}
	if !entry.BalanceAfter.Equal(amount) {
		t.Errorf("Expected balance after %s, got %s", amount.String(), entry.BalanceAfter.String())
	}

	user, err := service.GetUserById(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(amount) {
		t.Errorf("Expected user balance %s, got %s", amount.String(), user.Balance.String())
	}
	if user.Version != 2 {
		t.Errorf("Expected version 2 after credit, got %d", user.Version)
	}
}

func TestCreditAndRecord_DuplicateTransaction(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	params := store.CreditParams{
		UserId:        "user1",
		ExternalTxId:  "tx-dup",
		Amount:        decimal.NewFromInt(10),
		DisplayAmount: decimal.NewFromInt(10),
	}

	if _, err := service.CreditAndRecord(ctx, params); err != nil {
		t.Fatalf("First credit failed: %v", err)
	}

	// Same transaction id against a different user must also be rejected.
	params.UserId = "user2"
	_, err := service.CreditAndRecord(ctx, params)
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Errorf("Expected ErrDuplicateTransaction, got %v", err)
	}

	user1, err := service.GetUserById(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user1.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected user1 balance 10, got %s", user1.Balance.String())
	}

	user2, err := service.GetUserById(ctx, "user2")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user2.Balance.Equal(decimal.Zero) {
		t.Errorf("Duplicate credit must not move user2 balance, got %s", user2.Balance.String())
	}

	entries, err := service.GetLedgerEntries(ctx, "user2", 10)
	if err != nil {
		t.Fatalf("GetLedgerEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Duplicate credit must not append a ledger entry, got %d", len(entries))
	}
}

func TestCreditAndRecord_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.CreditAndRecord(context.Background(), store.CreditParams{
		UserId:        "nobody",
		ExternalTxId:  "tx-002",
		Amount:        decimal.NewFromInt(5),
		DisplayAmount: decimal.NewFromInt(5),
	})
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditAndRecord_InvalidParams(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := service.CreditAndRecord(ctx, store.CreditParams{
		UserId: "user1",
		Amount: decimal.NewFromInt(5),
	}); err == nil {
		t.Error("Expected error for empty external transaction id")
	}

	if _, err := service.CreditAndRecord(ctx, store.CreditParams{
		UserId:       "user1",
		ExternalTxId: "tx-003",
		Amount:       decimal.Zero,
	}); err == nil {
		t.Error("Expected error for non-positive amount")
	}
}

func TestCreditAndRecord_Accumulates(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first, err := service.CreditAndRecord(ctx, store.CreditParams{
		UserId:        "user1",
		ExternalTxId:  "tx-a",
		Amount:        decimal.NewFromInt(100),
		DisplayAmount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("First credit failed: %v", err)
	}

	second, err := service.CreditAndRecord(ctx, store.CreditParams{
		UserId:        "user1",
		ExternalTxId:  "tx-b",
		Amount:        decimal.NewFromFloat(0.5),
		DisplayAmount: decimal.NewFromFloat(0.5),
	})
	if err != nil {
		t.Fatalf("Second credit failed: %v", err)
	}

	if !second.BalanceBefore.Equal(first.BalanceAfter) {
		t.Errorf("Expected second credit to start from %s, got %s",
			first.BalanceAfter.String(), second.BalanceBefore.String())
	}
	if !second.BalanceAfter.Equal(decimal.NewFromFloat(100.5)) {
		t.Errorf("Expected balance after 100.5, got %s", second.BalanceAfter.String())
	}
}

func TestGetLedgerEntries_Limit(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	txIds := []string{"tx-1", "tx-2", "tx-3"}
	for _, txId := range txIds {
		if _, err := service.CreditAndRecord(ctx, store.CreditParams{
			UserId:        "user1",
			ExternalTxId:  txId,
			Amount:        decimal.NewFromInt(1),
			DisplayAmount: decimal.NewFromInt(1),
		}); err != nil {
			t.Fatalf("Credit %s failed: %v", txId, err)
		}
	}

	entries, err := service.GetLedgerEntries(ctx, "user1", 2)
	if err != nil {
		t.Fatalf("GetLedgerEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries with limit 2, got %d", len(entries))
	}

	all, err := service.GetLedgerEntries(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("GetLedgerEntries failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(all))
	}
}
