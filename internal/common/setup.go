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

package common

import (
	"context"
	"log"
	"strings"

	"topup-reconciler/internal/database"
	"topup-reconciler/internal/feed"
	"topup-reconciler/internal/models"
	"topup-reconciler/internal/rates"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export or the
	// process manager; a missing .env file is not an error.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService  *database.Service
	FeedClient *feed.Client
	Rates      *rates.Converter
	Settlement *SettlementConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	settlement, err := LoadSettlementConfig(cfg.Reconciler.SettlementFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	zap.L().Info("Settlement configuration loaded",
		zap.String("address", settlement.Address),
		zap.String("token", settlement.Token),
		zap.Int("decimals", settlement.Decimals),
		zap.String("display_currency", settlement.DisplayCurrency))

	converter, err := rates.NewConverter(cfg.Rates, settlement.DisplayCurrency)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:  dbService,
		FeedClient: feed.NewClient(cfg.Feed, settlement.Decimals),
		Rates:      converter,
		Settlement: settlement,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for CLI tools that never touch the feed or rate APIs.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
