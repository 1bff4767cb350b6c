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
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy holds the fund-accounting constants
type Policy struct {
	DailyProfitRate             decimal.Decimal
	CapitalLockDays             int
	DefaultWithdrawalPeriodDays int
	Networks                    []string
}

// DefaultPolicy returns 1% simple daily profit, a 180-day capital lock and a 30-day withdrawal period.
func DefaultPolicy() Policy {
	return Policy{
		DailyProfitRate:             decimal.New(1, -2),
		CapitalLockDays:             180,
		DefaultWithdrawalPeriodDays: 30,
		Networks:                    []string{"TRC20", "ERC20", "BEP20"},
	}
}

func (p Policy) Validate() error {
	if p.DailyProfitRate.IsNegative() {
		return fmt.Errorf("daily profit rate cannot be negative, got %s", p.DailyProfitRate.String())
	}
	if p.CapitalLockDays < 0 {
		return fmt.Errorf("capital lock days cannot be negative, got %d", p.CapitalLockDays)
	}
	if p.DefaultWithdrawalPeriodDays < 1 {
		return fmt.Errorf("default withdrawal period must be at least 1 day, got %d", p.DefaultWithdrawalPeriodDays)
	}
	if len(p.Networks) == 0 {
		return fmt.Errorf("at least one withdrawal network is required")
	}
	return nil
}

// SupportsNetwork matches case-insensitively and returns the canonical network name
func (p Policy) SupportsNetwork(network string) (string, bool) {
	for _, n := range p.Networks {
		if strings.EqualFold(n, strings.TrimSpace(network)) {
			return n, true
		}
	}
	return "", false
}
