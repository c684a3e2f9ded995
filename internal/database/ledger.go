package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreditAndRecord atomically increments the user's balance and appends the
// ledger entry. The insert and the balance update commit together or not at
// all; a replayed external transaction id fails on the ledger's unique index
// and rolls the whole credit back.
func (s *Service) CreditAndRecord(ctx context.Context, params store.CreditParams) (*models.LedgerEntry, error) {
	if params.ExternalTxId == "" {
		return nil, fmt.Errorf("external transaction id cannot be empty")
	}
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("credit amount must be positive, got %s", params.Amount.String())
	}

	zap.L().Info("Processing credit",
		zap.String("user_id", params.UserId),
		zap.String("external_tx_id", params.ExternalTxId),
		zap.String("amount", params.Amount.String()))

	// Cheap pre-check so replays of an already-consumed transfer skip the
	// write path. The unique index below remains the actual guard.
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateCredit, params.ExternalTxId).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: external_transaction_id %s already exists", store.ErrDuplicateTransaction, params.ExternalTxId)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate credit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balanceStr string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetUserBalanceForUpdate, params.UserId).Scan(&balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, params.UserId)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current balance: %w", err)
	}

	balanceBefore, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current balance %q: %w", balanceStr, err)
	}
	balanceAfter := balanceBefore.Add(params.Amount)

	entry := &models.LedgerEntry{
		Id:            uuid.New().String(),
		UserId:        params.UserId,
		ExternalTxId:  params.ExternalTxId,
		Amount:        params.Amount,
		DisplayAmount: params.DisplayAmount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertLedgerEntry,
		entry.Id, entry.UserId, entry.ExternalTxId, entry.Amount.String(),
		entry.DisplayAmount.String(), entry.BalanceBefore.String(),
		entry.BalanceAfter.String(), entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			zap.L().Warn("Concurrent credit lost the transaction id race",
				zap.String("external_tx_id", params.ExternalTxId))
			return nil, fmt.Errorf("%w: external_transaction_id %s already exists", store.ErrDuplicateTransaction, params.ExternalTxId)
		}
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateUserBalance, balanceAfter.String(), params.UserId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit: %w", err)
	}

	zap.L().Info("Credit processed successfully",
		zap.String("user_id", params.UserId),
		zap.String("external_tx_id", params.ExternalTxId),
		zap.String("old_balance", balanceBefore.String()),
		zap.String("new_balance", balanceAfter.String()))

	return entry, nil
}

func (s *Service) GetLedgerEntries(ctx context.Context, userId string, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetLedgerEntries, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var amountStr, displayStr, beforeStr, afterStr string
		err := rows.Scan(&entry.Id, &entry.UserId, &entry.ExternalTxId,
			&amountStr, &displayStr, &beforeStr, &afterStr, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		if entry.DisplayAmount, err = decimal.NewFromString(displayStr); err != nil {
			return nil, fmt.Errorf("failed to parse display amount %q: %w", displayStr, err)
		}
		if entry.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance before %q: %w", beforeStr, err)
		}
		if entry.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance after %q: %w", afterStr, err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
