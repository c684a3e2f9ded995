package api

import (
	"context"
	"errors"
	"time"

	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTopUp opens a pending top-up request for the user. At most one
// outstanding top-up request per user is allowed here; the reconciler itself
// does not depend on that rule holding.
func (s *TopUpService) CreateTopUp(ctx context.Context, userId string, amount decimal.Decimal) (*models.TopUpResult, error) {
	if userId == "" || amount.LessThanOrEqual(decimal.Zero) {
		zap.L().Error("Invalid top-up parameters",
			zap.String("user_id", userId),
			zap.String("amount", amount.String()))
		return &models.TopUpResult{
			Success: false,
			Error:   "invalid top-up parameters",
		}, nil
	}

	if _, err := s.db.GetUserById(ctx, userId); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return &models.TopUpResult{
				Success: false,
				Error:   err.Error(),
			}, nil
		}
		return nil, err
	}

	existing, err := s.db.FindPendingByUser(ctx, userId, models.KindTopUp)
	if err != nil && !errors.Is(err, store.ErrRequestNotFound) {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("Rejecting top-up request, one already pending",
			zap.String("user_id", userId),
			zap.String("existing_request_id", existing.Id))
		return &models.TopUpResult{
			Success: false,
			Error:   store.ErrPendingRequestExists.Error(),
		}, nil
	}

	now := time.Now().UTC()
	request, err := s.db.CreateRequest(ctx, store.CreateRequestParams{
		UserId:    userId,
		Kind:      models.KindTopUp,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(s.expiry),
	})
	if err != nil {
		return nil, err
	}

	return &models.TopUpResult{
		Success: true,
		Request: request,
	}, nil
}

// CancelTopUp removes a pending request without crediting anything. The
// watcher notices the deletion on its next cycle and retires itself.
func (s *TopUpService) CancelTopUp(ctx context.Context, requestId string) (*models.TopUpResult, error) {
	if err := s.db.DeleteRequest(ctx, requestId); err != nil {
		if errors.Is(err, store.ErrRequestNotFound) {
			return &models.TopUpResult{
				Success: false,
				Error:   err.Error(),
			}, nil
		}
		return nil, err
	}

	zap.L().Info("Pending top-up request cancelled",
		zap.String("request_id", requestId))
	return &models.TopUpResult{Success: true}, nil
}
