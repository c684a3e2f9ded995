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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord is a normalized TRC20 transfer as reported by the feed.
// Records are transient: consumed each poll cycle, never persisted.
type TransferRecord struct {
	TxId           string
	ToAddress      string
	TokenSymbol    string
	Confirmed      bool
	ContractResult string
	FinalResult    string
	Amount         decimal.Decimal
	Timestamp      time.Time
}

// Succeeded reports whether the transfer is confirmed and both the contract
// and final results indicate success on-chain.
func (t TransferRecord) Succeeded() bool {
	return t.Confirmed && t.ContractResult == "SUCCESS" && t.FinalResult == "SUCCESS"
}
