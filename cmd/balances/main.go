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

package main

import (
	"context"
	"flag"
	"fmt"

	"yield-ledger-go/internal/api"
	"yield-ledger-go/internal/common"
	"yield-ledger-go/internal/config"
	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts  int
	fundedAccounts int
	totalBalance   decimal.Decimal
	totalProfits   decimal.Decimal
}

func printAccountHeader(account common.AccountInfo) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", account.Name, account.Email)
	fmt.Printf("│  ID: %s\n", account.Id)
	common.PrintBoxSeparator(78)
}

func printSummary(summary *models.AccountSummary, eligibility models.EligibilityResult) {
	fmt.Printf("%s %-18s: %20s\n", common.BoxPrefix(false), "Balance", common.FormatMoney(summary.Balance))
	fmt.Printf("%s %-18s: %20s\n", common.BoxPrefix(false), "Profits", common.FormatMoney(summary.Profits))
	fmt.Printf("%s %-18s: %20s\n", common.BoxPrefix(false), "Total", common.FormatMoney(summary.Total))
	lastDeposit := summary.LastDepositDate
	if lastDeposit == "" {
		lastDeposit = "-"
	}
	fmt.Printf("%s %-18s: %20s (period %d days, pending deposit: %t)\n",
		common.BoxPrefix(false), "Last deposit", lastDeposit, summary.WithdrawalPeriod, summary.PendingDeposit)

	if eligibility.Eligible {
		fmt.Printf("%s %-18s: %20s (capital unlocked: %t)\n",
			common.BoxPrefix(true), "Withdrawable", common.FormatMoney(eligibility.MaxWithdrawable), eligibility.CapitalUnlocked)
		return
	}
	fmt.Printf("%s %-18s: %s\n", common.BoxPrefix(true), "Withdrawal", eligibility.Reason)
}

func processAccount(ctx context.Context, account common.AccountInfo, apiService *api.LedgerService) (*models.AccountSummary, error) {
	session := common.AdminSession()

	summary, err := apiService.GetAccountSummary(ctx, session, account.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account summary: %w", err)
	}
	eligibility := apiService.EvaluateWithdrawal(ctx, session, account.Id)

	printAccountHeader(account)
	printSummary(summary, eligibility)

	return summary, nil
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []common.AccountInfo, apiService *api.LedgerService, logger *zap.Logger) balanceStats {
	stats := balanceStats{totalBalance: decimal.Zero, totalProfits: decimal.Zero}

	for _, account := range accounts {
		stats.totalAccounts++

		summary, err := processAccount(ctx, account, apiService)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("user_id", account.Id),
				zap.String("user_name", account.Name),
				zap.Error(err))
			continue
		}

		if summary.Total.IsPositive() {
			stats.fundedAccounts++
		}
		stats.totalBalance = stats.totalBalance.Add(summary.Balance)
		stats.totalProfits = stats.totalProfits.Add(summary.Profits)
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	emailFlag := flag.String("email", "", "Filter by specific account email (optional)")
	flag.Parse()

	logger.Info("Starting balance report")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	// Initialize accounts based on filter
	accounts, err := common.InitializeAccounts(ctx, services.LedgerService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT (profits accrued to today)", common.DefaultWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, services.ApiService, logger)

	summary := fmt.Sprintf("SUMMARY: %d funded of %d accounts, balances %s, profits %s",
		stats.fundedAccounts, stats.totalAccounts,
		common.FormatMoney(stats.totalBalance), common.FormatMoney(stats.totalProfits))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance report completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("funded_accounts", stats.fundedAccounts),
		zap.String("total_balance", stats.totalBalance.String()),
		zap.String("total_profits", stats.totalProfits.String()))
}
