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

package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, name, balance, version, created_at, updated_at
		FROM users
		ORDER BY created_at`

	queryGetUserById = `
		SELECT id, name, balance, version, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryInsertUser = `
		INSERT INTO users (id, name) VALUES (?, ?)`

	queryGetUserBalanceForUpdate = `
		SELECT balance, version
		FROM users
		WHERE id = ?`

	queryUpdateUserBalance = `
		UPDATE users
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Request queries
	queryInsertRequest = `
		INSERT INTO requests (id, user_id, kind, amount, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetRequestById = `
		SELECT id, user_id, kind, amount, created_at, expires_at
		FROM requests
		WHERE id = ?`

	queryGetPendingByUserKind = `
		SELECT id, user_id, kind, amount, created_at, expires_at
		FROM requests
		WHERE user_id = ? AND kind = ?
		LIMIT 1`

	queryListPendingByKind = `
		SELECT id, user_id, kind, amount, created_at, expires_at
		FROM requests
		WHERE kind = ?
		ORDER BY created_at`

	queryDeleteRequest = `
		DELETE FROM requests WHERE id = ?`

	// Ledger queries
	queryCheckDuplicateCredit = `
		SELECT id FROM topups WHERE external_transaction_id = ? LIMIT 1`

	queryInsertLedgerEntry = `
		INSERT INTO topups (
			id, user_id, external_transaction_id, amount, display_amount,
			balance_before, balance_after, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLedgerEntries = `
		SELECT id, user_id, external_transaction_id, amount, display_amount,
		       balance_before, balance_after, created_at
		FROM topups
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`
)
