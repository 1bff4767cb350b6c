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
	"github.com/shopspring/decimal"
)

// Roles carried by a Session
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Session identifies the caller of every ledger operation
type Session struct {
	UserId string `json:"user_id"`
	Role   string `json:"role"`
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// CanActOn reports whether the session may operate on the given account
func (s Session) CanActOn(accountId string) bool {
	if s.IsAdmin() {
		return true
	}
	return s.UserId != "" && s.UserId == accountId
}

// Eligibility codes, stable identifiers for the reason a withdrawal is (not) allowed
const (
	EligibilityOK             = "ok"
	EligibilityNotFound       = "account_not_found"
	EligibilityPendingDeposit = "pending_deposit"
	EligibilityNoDeposit      = "no_deposit"
	EligibilityCapitalLocked  = "capital_locked"
	EligibilityMaturity       = "withdrawal_period"
	EligibilityInsufficient   = "insufficient_balance"
)

// EligibilityResult is the outcome of a withdrawal eligibility check
type EligibilityResult struct {
	Eligible        bool            `json:"eligible"`
	Code            string          `json:"code"`
	Reason          string          `json:"reason,omitempty"`
	DaysRemaining   int             `json:"days_remaining,omitempty"`
	MaxWithdrawable decimal.Decimal `json:"max_withdrawable"`
	CapitalUnlocked bool            `json:"capital_unlocked"`
}

// WithdrawalResult represents the result of submitting a withdrawal
type WithdrawalResult struct {
	Success bool               `json:"success"`
	Request *WithdrawalRequest `json:"request,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// OperationResult represents the result of a ledger mutation that returns no payload
type OperationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AccountSummary is the read model shown to a user after accrual
type AccountSummary struct {
	Id               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Balance          decimal.Decimal `json:"balance"`
	Profits          decimal.Decimal `json:"profits"`
	Total            decimal.Decimal `json:"total"`
	LastDepositDate  string          `json:"last_deposit_date,omitempty"`
	WithdrawalPeriod int             `json:"withdrawal_period"`
	PendingDeposit   bool            `json:"pending_deposit"`
}
