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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topup-reconciler/internal/api"
	"topup-reconciler/internal/common"
	"topup-reconciler/internal/config"
	"topup-reconciler/internal/metrics"
	"topup-reconciler/internal/reconciler"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting top-up reconciler")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	zap.L().Info("Watching settlement address",
		zap.String("address", services.Settlement.Address),
		zap.String("token", services.Settlement.Token),
		zap.String("display_currency", services.Settlement.DisplayCurrency))

	supervisor, err := reconciler.NewSupervisor(reconciler.SupervisorConfig{
		Store:         services.DbService,
		Feed:          services.FeedClient,
		Rates:         services.Rates,
		Settlement:    services.Settlement,
		PollInterval:  cfg.Reconciler.PollInterval,
		SweepInterval: cfg.Reconciler.SweepInterval,
		MaxWatchers:   cfg.Reconciler.MaxWatchers,
		ShutdownGrace: cfg.Reconciler.ShutdownGrace,
	})
	if err != nil {
		zap.L().Fatal("Failed to create supervisor", zap.Error(err))
	}

	if err := supervisor.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start supervisor", zap.Error(err))
	}

	apiSvc := api.NewTopUpService(services.DbService, cfg.Reconciler.TopUpExpiry)
	metricsSrv := metrics.StartServer(cfg.Metrics.Port, apiSvc.HealthCheck)
	zap.L().Info("Metrics server listening", zap.String("port", cfg.Metrics.Port))

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping reconciler...")

	supervisor.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Metrics server shutdown failed", zap.Error(err))
	}

	zap.L().Info("Reconciler stopped")
}
