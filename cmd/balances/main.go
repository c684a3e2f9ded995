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

	"topup-reconciler/internal/common"
	"topup-reconciler/internal/config"
	"topup-reconciler/internal/database"
	"topup-reconciler/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers       int
	totalEntries     int
	usersWithCredits int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printEntry(entry models.LedgerEntry, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s %20s (display: %s, tx: %s, at: %s)\n",
		symbol,
		entry.Amount.String(),
		entry.DisplayAmount.String(),
		formatTransactionId(entry.ExternalTxId),
		entry.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printEntries(entries []models.LedgerEntry) {
	for i, entry := range entries {
		isLast := i == len(entries)-1
		printEntry(entry, isLast)
	}
}

func printUserHeader(user models.User, entryCount int) {
	fmt.Printf("\n┌─ User: %s\n", user.Name)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Balance: %s (v%d)\n", user.Balance.String(), user.Version)
	fmt.Printf("│  Credits: %d\n", entryCount)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.User, dbService *database.Service, limit int, logger *zap.Logger) (int, error) {
	entries, err := dbService.GetLedgerEntries(ctx, user.Id, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	printUserHeader(user, len(entries))
	if len(entries) > 0 {
		printEntries(entries)
	}

	return len(entries), nil
}

func processUsersAndGenerateReport(ctx context.Context, users []models.User, dbService *database.Service, limit int, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		entryCount, err := processUser(ctx, user, dbService, limit, logger)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if entryCount > 0 {
			stats.usersWithCredits++
			stats.totalEntries += entryCount
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	userFlag := flag.String("user", "", "Filter by specific user id (optional)")
	limitFlag := flag.Int("limit", 10, "Max ledger entries to show per user")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var users []models.User
	if *userFlag != "" {
		user, err := dbService.GetUserById(ctx, *userFlag)
		if err != nil {
			logger.Fatal("Failed to find user", zap.String("user_id", *userFlag), zap.Error(err))
		}
		users = []models.User{*user}
	} else {
		users, err = dbService.GetUsers(ctx)
		if err != nil {
			logger.Fatal("Failed to list users", zap.Error(err))
		}
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, dbService, *limitFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d users with credits (%d ledger entries across %d users queried)",
		stats.usersWithCredits, stats.totalEntries, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_credits", stats.usersWithCredits),
		zap.Int("total_entries", stats.totalEntries))
}
