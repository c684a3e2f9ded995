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
	"flag"
	"fmt"

	"topup-reconciler/internal/api"
	"topup-reconciler/internal/common"
	"topup-reconciler/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	userFlag := flag.String("user", "", "User id to credit")
	amountFlag := flag.String("amount", "", "Expected transfer amount in token units (e.g. 25.5)")
	cancelFlag := flag.String("cancel", "", "Request id to cancel instead of creating a new request")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	apiSvc := api.NewTopUpService(dbService, cfg.Reconciler.TopUpExpiry)

	if *cancelFlag != "" {
		result, err := apiSvc.CancelTopUp(ctx, *cancelFlag)
		if err != nil {
			logger.Fatal("Failed to cancel request", zap.Error(err))
		}
		if !result.Success {
			fmt.Printf("Cancel failed: %s\n", result.Error)
			return
		}
		fmt.Printf("Cancelled request %s\n", *cancelFlag)
		return
	}

	if *userFlag == "" || *amountFlag == "" {
		logger.Fatal("Both -user and -amount are required (or use -cancel)")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		logger.Fatal("Invalid amount", zap.String("amount", *amountFlag), zap.Error(err))
	}

	result, err := apiSvc.CreateTopUp(ctx, *userFlag, amount)
	if err != nil {
		logger.Fatal("Failed to create top-up request", zap.Error(err))
	}
	if !result.Success {
		fmt.Printf("Request rejected: %s\n", result.Error)
		return
	}

	fmt.Printf("Created top-up request %s\n", result.Request.Id)
	fmt.Printf("  User:       %s\n", result.Request.UserId)
	fmt.Printf("  Amount:     %s\n", result.Request.Amount.String())
	fmt.Printf("  Expires at: %s\n", result.Request.ExpiresAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Send the exact amount to the settlement address before expiry.")
}
