/**
 * Copyright 2025-present Coinbase Global, Inc.
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

package api

import (
	"context"
	"fmt"
	"time"

	"topup-reconciler/internal/store"
)

// TopUpService is the request-creation collaborator: the surface the admin
// panel and chat bot call to open or cancel a pending top-up request.
type TopUpService struct {
	db     store.RequestStore
	expiry time.Duration
}

func NewTopUpService(db store.RequestStore, expiry time.Duration) *TopUpService {
	return &TopUpService{
		db:     db,
		expiry: expiry,
	}
}

func (s *TopUpService) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
