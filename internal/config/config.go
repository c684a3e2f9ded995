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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"topup-reconciler/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	feedTimeout, err := getEnvDuration("FEED_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	rateTimeout, err := getEnvDuration("RATE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("RECONCILER_POLL_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvDuration("RECONCILER_SWEEP_INTERVAL", 120*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownGrace, err := getEnvDuration("RECONCILER_SHUTDOWN_GRACE", 30*time.Second)
	if err != nil {
		return nil, err
	}

	topUpExpiry, err := getEnvDuration("TOPUP_EXPIRY", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "topups.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Feed: models.FeedConfig{
			BaseURL:  getEnvString("FEED_BASE_URL", "https://apilist.tronscanapi.com"),
			PageSize: getEnvInt("FEED_PAGE_SIZE", 20),
			Timeout:  feedTimeout,
		},
		Rates: models.RatesConfig{
			CoinCapURL: getEnvString("RATE_COINCAP_URL", "https://api.coincap.io/v2/assets"),
			CbrURL:     getEnvString("RATE_CBR_URL", "https://www.cbr-xml-daily.ru/daily_json.js"),
			Timeout:    rateTimeout,
		},
		Reconciler: models.ReconcilerConfig{
			PollInterval:   pollInterval,
			SweepInterval:  sweepInterval,
			MaxWatchers:    int64(getEnvInt("RECONCILER_MAX_WATCHERS", 64)),
			ShutdownGrace:  shutdownGrace,
			TopUpExpiry:    topUpExpiry,
			SettlementFile: getEnvString("SETTLEMENT_FILE", "settlement.yaml"),
		},
		Metrics: models.MetricsConfig{
			Port: getEnvString("METRICS_PORT", "9090"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
