package common

import (
	"fmt"
	"os"
	"path/filepath"

	"topup-reconciler/internal/rates"

	"gopkg.in/yaml.v2"
)

// SettlementConfig describes the monitored settlement endpoint: the deposit
// address, the token expected there, and how ledger entries are annotated.
type SettlementConfig struct {
	Address         string `yaml:"address"`
	Token           string `yaml:"token"`
	Decimals        int    `yaml:"decimals"`
	DisplayCurrency string `yaml:"display_currency"`
}

func LoadSettlementConfig(settlementFile string) (*SettlementConfig, error) {
	var settlementPath string
	if filepath.IsAbs(settlementFile) {
		settlementPath = settlementFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		settlementPath = filepath.Join(wd, settlementFile)
	}

	data, err := os.ReadFile(settlementPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", settlementFile, err)
	}

	var config SettlementConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", settlementFile, err)
	}

	if config.Address == "" {
		return nil, fmt.Errorf("%s: settlement address is required", settlementFile)
	}
	if config.Token == "" {
		config.Token = "USDT"
	}
	if config.Decimals == 0 {
		config.Decimals = 6
	}
	if config.Decimals < 0 {
		return nil, fmt.Errorf("%s: decimals cannot be negative", settlementFile)
	}
	if config.DisplayCurrency == "" {
		config.DisplayCurrency = rates.CurrencyUSD
	}

	return &config, nil
}
