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

package common

import (
	"fmt"
	"os"
	"path/filepath"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// PolicyFile is the YAML form of the ledger policy. Omitted fields keep their defaults.
type PolicyFile struct {
	DailyProfitRate             string   `yaml:"daily_profit_rate"`
	CapitalLockDays             *int     `yaml:"capital_lock_days"`
	DefaultWithdrawalPeriodDays *int     `yaml:"default_withdrawal_period_days"`
	Networks                    []string `yaml:"networks"`
}

// LoadPolicy reads the ledger policy from policyFile; an empty path yields the defaults.
func LoadPolicy(policyFile string) (models.Policy, error) {
	policy := models.DefaultPolicy()
	if policyFile == "" {
		return policy, nil
	}

	var policyPath string
	if filepath.IsAbs(policyFile) {
		policyPath = policyFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return policy, fmt.Errorf("failed to get working directory: %w", err)
		}
		policyPath = filepath.Join(wd, policyFile)
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return policy, fmt.Errorf("unable to read %s: %w", policyFile, err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy, fmt.Errorf("unable to parse %s: %w", policyFile, err)
	}

	if file.DailyProfitRate != "" {
		rate, err := decimal.NewFromString(file.DailyProfitRate)
		if err != nil {
			return policy, fmt.Errorf("invalid daily_profit_rate %q: %w", file.DailyProfitRate, err)
		}
		policy.DailyProfitRate = rate
	}
	if file.CapitalLockDays != nil {
		policy.CapitalLockDays = *file.CapitalLockDays
	}
	if file.DefaultWithdrawalPeriodDays != nil {
		policy.DefaultWithdrawalPeriodDays = *file.DefaultWithdrawalPeriodDays
	}
	if len(file.Networks) > 0 {
		policy.Networks = file.Networks
	}

	for i, network := range policy.Networks {
		if network == "" {
			return policy, fmt.Errorf("network at index %d is empty", i)
		}
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid policy in %s: %w", policyFile, err)
	}

	return policy, nil
}
