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

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"topup-reconciler/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrUnavailable wraps every fetch failure: network errors, non-2xx
// responses, and malformed payloads. Callers treat it as transient; an
// unavailable feed never means "no transfers".
var ErrUnavailable = errors.New("transfer feed unavailable")

const transfersPath = "/api/filter/trc20/transfers"

// Client lists recent TRC20 transfers to a monitored address. It is a thin
// read-only wrapper: no pagination, no side effects.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	pageSize      int
	tokenDecimals int32
}

func NewClient(cfg models.FeedConfig, tokenDecimals int) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       cfg.BaseURL,
		pageSize:      cfg.PageSize,
		tokenDecimals: int32(tokenDecimals),
	}
}

// Wire format of the feed response. Amounts arrive as integer minor units in
// quant; block_ts is milliseconds since epoch.
type transferItem struct {
	TransactionId string `json:"transaction_id"`
	ToAddress     string `json:"toAddress"`
	TokenInfo     struct {
		TokenAbbr string `json:"TokenAbbr"`
	} `json:"tokenInfo"`
	Confirmed   bool        `json:"confirmed"`
	ContractRet string      `json:"contractRet"`
	FinalResult string      `json:"finalResult"`
	Quant       json.Number `json:"quant"`
	BlockTs     int64       `json:"block_ts"`
}

type transferEnvelope struct {
	TokenTransfers []transferItem `json:"token_transfers"`
}

// RecentTransfers returns the most recent transfers to the given address,
// newest first, as reported by the feed.
func (c *Client) RecentTransfers(ctx context.Context, address string) ([]models.TransferRecord, error) {
	params := url.Values{
		"limit":            {strconv.Itoa(c.pageSize)},
		"sort":             {"-timestamp"},
		"count":            {"true"},
		"filterTokenValue": {"0"},
		"relatedAddress":   {address},
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, transfersPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var envelope transferEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	records := make([]models.TransferRecord, 0, len(envelope.TokenTransfers))
	for _, item := range envelope.TokenTransfers {
		record, err := c.normalize(item)
		if err != nil {
			zap.L().Debug("Skipping malformed transfer item",
				zap.String("transaction_id", item.TransactionId),
				zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	zap.L().Debug("Fetched transfers from feed",
		zap.String("address", address),
		zap.Int("count", len(records)))

	return records, nil
}

func (c *Client) normalize(item transferItem) (models.TransferRecord, error) {
	quant, err := decimal.NewFromString(item.Quant.String())
	if err != nil {
		return models.TransferRecord{}, fmt.Errorf("invalid quant %q: %w", item.Quant.String(), err)
	}

	return models.TransferRecord{
		TxId:           item.TransactionId,
		ToAddress:      item.ToAddress,
		TokenSymbol:    item.TokenInfo.TokenAbbr,
		Confirmed:      item.Confirmed,
		ContractResult: item.ContractRet,
		FinalResult:    item.FinalResult,
		Amount:         quant.Shift(-c.tokenDecimals),
		Timestamp:      time.UnixMilli(item.BlockTs).UTC(),
	}, nil
}
