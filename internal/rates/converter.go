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

package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"topup-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// ErrUnavailable wraps every rate lookup failure. Rate lookups only annotate
// ledger entries; callers must never let this error block a credit.
var ErrUnavailable = errors.New("rate source unavailable")

// Supported display currencies.
const (
	CurrencyUSD = "USD"
	CurrencyRUB = "RUB"
)

// Converter resolves the display-currency price of the settlement asset.
// USD comes straight from CoinCap; RUB adds the central bank USD/RUB leg.
type Converter struct {
	httpClient      *http.Client
	coincapURL      string
	cbrURL          string
	displayCurrency string
}

func NewConverter(cfg models.RatesConfig, displayCurrency string) (*Converter, error) {
	if displayCurrency != CurrencyUSD && displayCurrency != CurrencyRUB {
		return nil, fmt.Errorf("unsupported display currency %q", displayCurrency)
	}
	return &Converter{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		coincapURL:      cfg.CoinCapURL,
		cbrURL:          cfg.CbrURL,
		displayCurrency: displayCurrency,
	}, nil
}

// SettlementRate returns the current price of one settlement-asset unit in
// the display currency.
func (c *Converter) SettlementRate(ctx context.Context) (decimal.Decimal, error) {
	usdRate, err := c.tetherUsdRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if c.displayCurrency == CurrencyUSD {
		return usdRate, nil
	}

	usdRub, err := c.usdRubRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return usdRate.Mul(usdRub), nil
}

// DisplayAmount converts a settlement-asset amount to the display currency.
func (c *Converter) DisplayAmount(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := c.SettlementRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Mul(amount), nil
}

type coincapResponse struct {
	Data []struct {
		PriceUsd string `json:"priceUsd"`
	} `json:"data"`
}

func (c *Converter) tetherUsdRate(ctx context.Context) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s?%s", c.coincapURL, url.Values{"ids": {"tether"}}.Encode())

	var payload coincapResponse
	if err := c.getJSON(ctx, reqURL, &payload); err != nil {
		return decimal.Zero, err
	}
	if len(payload.Data) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty asset list", ErrUnavailable)
	}

	rate, err := decimal.NewFromString(payload.Data[0].PriceUsd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid priceUsd %q", ErrUnavailable, payload.Data[0].PriceUsd)
	}
	return rate, nil
}

type cbrResponse struct {
	Valute struct {
		USD struct {
			Value json.Number `json:"Value"`
		} `json:"USD"`
	} `json:"Valute"`
}

func (c *Converter) usdRubRate(ctx context.Context) (decimal.Decimal, error) {
	var payload cbrResponse
	if err := c.getJSON(ctx, c.cbrURL, &payload); err != nil {
		return decimal.Zero, err
	}

	rate, err := decimal.NewFromString(payload.Valute.USD.Value.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid USD value %q", ErrUnavailable, payload.Valute.USD.Value.String())
	}
	return rate, nil
}

func (c *Converter) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	return nil
}
