/**
 * Copyright 2024-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"topup-reconciler/internal/common"
	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the terminal outcome of a watcher run.
type State string

const (
	StatePending   State = "PENDING"
	StateMatched   State = "MATCHED"
	StateExpired   State = "EXPIRED"
	StateCancelled State = "CANCELLED"
)

// TransferSource is the watcher's view of the external transfer feed.
type TransferSource interface {
	RecentTransfers(ctx context.Context, address string) ([]models.TransferRecord, error)
}

// RateSource converts a settled token amount into the display currency.
type RateSource interface {
	DisplayAmount(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}

type WatcherConfig struct {
	Store        store.RequestStore
	Feed         TransferSource
	Rates        RateSource
	Settlement   *common.SettlementConfig
	PollInterval time.Duration
}

// Watcher drives a single pending top-up request to a terminal state by
// polling the transfer feed until a matching transfer is credited, the
// request expires, or the request disappears from storage.
type Watcher struct {
	requestId    string
	store        store.RequestStore
	feed         TransferSource
	rates        RateSource
	settlement   *common.SettlementConfig
	pollInterval time.Duration
}

func NewWatcher(requestId string, cfg WatcherConfig) *Watcher {
	return &Watcher{
		requestId:    requestId,
		store:        cfg.Store,
		feed:         cfg.Feed,
		rates:        cfg.Rates,
		settlement:   cfg.Settlement,
		pollInterval: cfg.PollInterval,
	}
}

// Run polls until the request reaches a terminal state and returns it.
// A non-nil error reports an unexpected storage failure or context
// cancellation; the request stays pending and a later sweep re-adopts it.
func (w *Watcher) Run(ctx context.Context) (State, error) {
	for {
		state, done, err := w.cycle(ctx)
		if err != nil {
			return state, err
		}
		if done {
			return state, nil
		}

		select {
		case <-time.After(w.pollInterval):
		case <-ctx.Done():
			return StatePending, ctx.Err()
		}
	}
}

func (w *Watcher) cycle(ctx context.Context) (State, bool, error) {
	request, err := w.store.FindRequest(ctx, w.requestId)
	if errors.Is(err, store.ErrRequestNotFound) {
		cancelledTotal.Inc()
		zap.L().Info(
			"Request no longer exists, retiring watcher",
			zap.String("requestId", w.requestId),
		)
		return StateCancelled, true, nil
	}
	if err != nil {
		return StatePending, false, fmt.Errorf("failed to re-read request %s: %w", w.requestId, err)
	}

	if request.Expired(time.Now().UTC()) {
		if err := w.store.DeleteRequest(ctx, request.Id); err != nil && !errors.Is(err, store.ErrRequestNotFound) {
			return StatePending, false, fmt.Errorf("failed to delete expired request %s: %w", request.Id, err)
		}
		expiredTotal.Inc()
		zap.L().Info(
			"Request expired without a matching transfer",
			zap.String("requestId", request.Id),
			zap.String("userId", request.UserId),
			zap.String("amount", request.Amount.String()),
		)
		return StateExpired, true, nil
	}

	transfers, err := w.feed.RecentTransfers(ctx, w.settlement.Address)
	if err != nil {
		if ctx.Err() != nil {
			return StatePending, false, ctx.Err()
		}
		feedErrorsTotal.Inc()
		zap.L().Warn(
			"Transfer feed fetch failed, will retry next cycle",
			zap.String("requestId", w.requestId),
			zap.Error(err),
		)
		return StatePending, false, nil
	}

	for _, transfer := range transfers {
		if !w.matches(*request, transfer) {
			continue
		}
		return w.credit(ctx, *request, transfer)
	}

	return StatePending, false, nil
}

func (w *Watcher) matches(request models.PendingRequest, transfer models.TransferRecord) bool {
	if transfer.ToAddress != w.settlement.Address {
		return false
	}
	if transfer.TokenSymbol != w.settlement.Token {
		return false
	}
	if transfer.Timestamp.Before(request.CreatedAt) {
		return false
	}
	if !transfer.Succeeded() {
		return false
	}
	return transfer.Amount.Equal(request.Amount)
}

func (w *Watcher) credit(ctx context.Context, request models.PendingRequest, transfer models.TransferRecord) (State, bool, error) {
	// The credit must not be torn by shutdown once a match is found.
	creditCtx := context.WithoutCancel(ctx)

	displayAmount, err := w.rates.DisplayAmount(creditCtx, transfer.Amount)
	if err != nil {
		zap.L().Warn(
			"Rate lookup failed, recording zero display amount",
			zap.String("requestId", request.Id),
			zap.String("transactionId", transfer.TxId),
			zap.Error(err),
		)
		displayAmount = decimal.Zero
	}

	entry, err := w.store.CreditAndRecord(creditCtx, store.CreditParams{
		UserId:        request.UserId,
		ExternalTxId:  transfer.TxId,
		Amount:        transfer.Amount,
		DisplayAmount: displayAmount,
	})
	if errors.Is(err, store.ErrDuplicateTransaction) {
		// Another request already consumed this transfer. A different
		// transfer may still satisfy this one, so keep polling.
		duplicateCreditsTotal.Inc()
		zap.L().Info(
			"Transfer already credited, continuing to poll",
			zap.String("requestId", request.Id),
			zap.String("transactionId", transfer.TxId),
		)
		return StatePending, false, nil
	}
	if errors.Is(err, store.ErrUserNotFound) {
		cancelledTotal.Inc()
		zap.L().Warn(
			"User vanished before credit, retiring watcher",
			zap.String("requestId", request.Id),
			zap.String("userId", request.UserId),
		)
		return StateCancelled, true, nil
	}
	if err != nil {
		return StatePending, false, fmt.Errorf("failed to credit request %s: %w", request.Id, err)
	}

	if err := w.store.DeleteRequest(creditCtx, request.Id); err != nil && !errors.Is(err, store.ErrRequestNotFound) {
		// The credit is committed; report the stale request instead of
		// pretending the match failed.
		matchedTotal.Inc()
		return StateMatched, true, fmt.Errorf("credited request %s but failed to delete it: %w", request.Id, err)
	}

	matchedTotal.Inc()
	zap.L().Info(
		"Top-up matched and credited",
		zap.String("requestId", request.Id),
		zap.String("userId", request.UserId),
		zap.String("transactionId", transfer.TxId),
		zap.String("amount", transfer.Amount.String()),
		zap.String("displayAmount", displayAmount.String()),
		zap.String("balanceBefore", entry.BalanceBefore.String()),
		zap.String("balanceAfter", entry.BalanceAfter.String()),
	)
	return StateMatched, true, nil
}
