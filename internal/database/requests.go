package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateRequest(ctx context.Context, params store.CreateRequestParams) (*models.PendingRequest, error) {
	if params.UserId == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if params.Kind != models.KindTopUp && params.Kind != models.KindPayout {
		return nil, fmt.Errorf("invalid request kind %q", params.Kind)
	}
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("request amount must be positive, got %s", params.Amount.String())
	}
	if !params.ExpiresAt.After(params.CreatedAt) {
		return nil, fmt.Errorf("expiry %v must be after creation %v", params.ExpiresAt, params.CreatedAt)
	}

	request := &models.PendingRequest{
		Id:        uuid.New().String(),
		UserId:    params.UserId,
		Kind:      params.Kind,
		Amount:    params.Amount,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}

	_, err := s.db.ExecContext(ctx, queryInsertRequest,
		request.Id, request.UserId, request.Kind, request.Amount.String(),
		request.CreatedAt, request.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	zap.L().Info("Pending request created",
		zap.String("request_id", request.Id),
		zap.String("user_id", request.UserId),
		zap.String("kind", request.Kind),
		zap.String("amount", request.Amount.String()),
		zap.Time("expires_at", request.ExpiresAt))

	return request, nil
}

func (s *Service) FindRequest(ctx context.Context, id string) (*models.PendingRequest, error) {
	row := s.db.QueryRowContext(ctx, queryGetRequestById, id)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRequestNotFound, id)
	}
	return request, err
}

func (s *Service) FindPendingByUser(ctx context.Context, userId, kind string) (*models.PendingRequest, error) {
	row := s.db.QueryRowContext(ctx, queryGetPendingByUserKind, userId, kind)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s kind %s", store.ErrRequestNotFound, userId, kind)
	}
	return request, err
}

func (s *Service) ListPending(ctx context.Context, kind string) ([]models.PendingRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryListPendingByKind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var requests []models.PendingRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating request rows: %w", err)
	}
	return requests, nil
}

func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteRequest, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", store.ErrRequestNotFound, id)
	}
	return nil
}

func scanRequest(row rowScanner) (*models.PendingRequest, error) {
	var request models.PendingRequest
	var amountStr string
	err := row.Scan(&request.Id, &request.UserId, &request.Kind, &amountStr,
		&request.CreatedAt, &request.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	request.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request amount %q: %w", amountStr, err)
	}
	return &request, nil
}
