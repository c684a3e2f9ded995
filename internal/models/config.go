package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Feed       FeedConfig
	Rates      RatesConfig
	Reconciler ReconcilerConfig
	Metrics    MetricsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// FeedConfig holds transfer feed client settings
type FeedConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// RatesConfig holds rate converter settings
type RatesConfig struct {
	CoinCapURL string
	CbrURL     string
	Timeout    time.Duration
}

// ReconcilerConfig holds watcher and supervisor settings
type ReconcilerConfig struct {
	PollInterval   time.Duration
	SweepInterval  time.Duration
	MaxWatchers    int64
	ShutdownGrace  time.Duration
	TopUpExpiry    time.Duration
	SettlementFile string
}

// MetricsConfig holds the metrics/health endpoint settings
type MetricsConfig struct {
	Port string
}
