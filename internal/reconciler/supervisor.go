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
	"sync"
	"time"

	"topup-reconciler/internal/common"
	"topup-reconciler/internal/models"
	"topup-reconciler/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type SupervisorConfig struct {
	Store         store.RequestStore
	Feed          TransferSource
	Rates         RateSource
	Settlement    *common.SettlementConfig
	PollInterval  time.Duration
	SweepInterval time.Duration
	MaxWatchers   int64
	ShutdownGrace time.Duration
}

// Supervisor owns the watcher pool. It adopts every pending top-up request
// at startup, accepts new requests as they are created, and sweeps storage
// periodically to re-adopt requests whose watcher died or was deferred.
type Supervisor struct {
	cfg    SupervisorConfig
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]struct{}
}

func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if cfg.Store == nil || cfg.Feed == nil || cfg.Rates == nil || cfg.Settlement == nil {
		return nil, fmt.Errorf("supervisor requires store, feed, rates and settlement config")
	}
	if cfg.MaxWatchers <= 0 {
		return nil, fmt.Errorf("max watchers must be positive, got %d", cfg.MaxWatchers)
	}

	return &Supervisor{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxWatchers),
		running: make(map[string]struct{}),
	}, nil
}

// Start adopts all pending requests and begins the sweep loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	pending, err := s.cfg.Store.ListPending(s.ctx, models.KindTopUp)
	if err != nil {
		return fmt.Errorf("failed to list pending requests at startup: %w", err)
	}

	for _, request := range pending {
		s.adopt(request.Id)
	}

	s.wg.Add(1)
	go s.sweepLoop()

	zap.L().Info(
		"Reconciler started",
		zap.Int("pendingRequests", len(pending)),
		zap.Duration("pollInterval", s.cfg.PollInterval),
		zap.Duration("sweepInterval", s.cfg.SweepInterval),
		zap.Int64("maxWatchers", s.cfg.MaxWatchers),
	)
	return nil
}

// OnRequestCreated spawns a watcher for a newly created top-up request.
func (s *Supervisor) OnRequestCreated(request *models.PendingRequest) {
	if request == nil || request.Kind != models.KindTopUp {
		return
	}
	s.adopt(request.Id)
}

// ActiveWatchers reports how many watchers are currently running.
func (s *Supervisor) ActiveWatchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

func (s *Supervisor) adopt(requestId string) {
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.running[requestId]; ok {
		s.mu.Unlock()
		return
	}
	if !s.sem.TryAcquire(1) {
		s.mu.Unlock()
		deferredSpawnsTotal.Inc()
		zap.L().Warn(
			"Watcher pool at capacity, deferring request to next sweep",
			zap.String("requestId", requestId),
			zap.Int64("maxWatchers", s.cfg.MaxWatchers),
		)
		return
	}
	s.running[requestId] = struct{}{}
	s.mu.Unlock()

	watchersActive.Inc()
	s.wg.Add(1)
	go s.runWatcher(requestId)
}

func (s *Supervisor) runWatcher(requestId string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.running, requestId)
		s.mu.Unlock()
		s.sem.Release(1)
		watchersActive.Dec()
	}()

	watcher := NewWatcher(requestId, WatcherConfig{
		Store:        s.cfg.Store,
		Feed:         s.cfg.Feed,
		Rates:        s.cfg.Rates,
		Settlement:   s.cfg.Settlement,
		PollInterval: s.cfg.PollInterval,
	})

	state, err := watcher.Run(s.ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			zap.L().Info("Watcher stopped by shutdown", zap.String("requestId", requestId))
			return
		}
		storageErrorsTotal.Inc()
		zap.L().Error(
			"Watcher stopped on storage failure",
			zap.String("requestId", requestId),
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return
	}

	zap.L().Info(
		"Watcher finished",
		zap.String("requestId", requestId),
		zap.String("state", string(state)),
	)
}

func (s *Supervisor) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Supervisor) sweep() {
	pending, err := s.cfg.Store.ListPending(s.ctx, models.KindTopUp)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		storageErrorsTotal.Inc()
		zap.L().Error("Sweep failed to list pending requests", zap.Error(err))
		return
	}

	for _, request := range pending {
		s.adopt(request.Id)
	}
}

// Shutdown cancels all watchers and waits up to the configured grace period
// for them to finish. A watcher that has found a match completes its credit
// before observing the cancellation.
func (s *Supervisor) Shutdown() {
	if s.cancel == nil {
		return
	}

	zap.L().Info("Reconciler shutting down", zap.Duration("grace", s.cfg.ShutdownGrace))
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("All watchers stopped")
	case <-time.After(s.cfg.ShutdownGrace):
		zap.L().Warn("Shutdown grace period elapsed, abandoning in-flight watchers")
	}
}
