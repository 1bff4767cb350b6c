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
	"strings"

	"yield-ledger-go/internal/api"
	"yield-ledger-go/internal/common"
	"yield-ledger-go/internal/config"
	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"

	"go.uber.org/zap"
)

type reportStats struct {
	totalAccounts        int
	totalRequests        int
	accountsWithRequests int
	requestsByStatus     map[string]int
}

func printAccountHeader(account common.AccountInfo, requestCount int) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", account.Name, account.Email)
	fmt.Printf("│  ID: %s\n", account.Id)
	fmt.Printf("│  Withdrawal requests: %d\n", requestCount)
	common.PrintBoxSeparator(98)
}

func printRequest(r models.WithdrawalRequest, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s %s  %-9s %12s  %-6s → %s\n",
		symbol, r.CreatedAt.Format("2006-01-02"), strings.ToUpper(r.Status),
		common.FormatMoney(r.Amount), r.Network, r.WalletAddress)

	detailSymbol := common.BoxDetailPrefix(isLast)
	fmt.Printf("%s   from profits %s, from balance %s\n", detailSymbol,
		common.FormatMoney(r.AmountFromProfits), common.FormatMoney(r.AmountFromBalance))
	if r.ResolvedAt != nil {
		fmt.Printf("%s   resolved %s by %s\n", detailSymbol, r.ResolvedAt.Format("2006-01-02 15:04"), r.ResolvedBy)
	}
}

func processAccount(ctx context.Context, account common.AccountInfo, apiService *api.LedgerService, status string) ([]models.WithdrawalRequest, error) {
	requests, err := apiService.ListWithdrawals(ctx, common.AdminSession(), ledger.WithdrawalFilter{
		UserId: account.Id,
		Status: status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	if len(requests) == 0 {
		return nil, nil
	}

	printAccountHeader(account, len(requests))
	for i, r := range requests {
		printRequest(r, i == len(requests)-1)
	}

	return requests, nil
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []common.AccountInfo, apiService *api.LedgerService, status string, logger *zap.Logger) reportStats {
	stats := reportStats{requestsByStatus: make(map[string]int)}

	for _, account := range accounts {
		stats.totalAccounts++

		requests, err := processAccount(ctx, account, apiService, status)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("user_id", account.Id),
				zap.String("user_name", account.Name),
				zap.Error(err))
			continue
		}

		if len(requests) > 0 {
			stats.accountsWithRequests++
			stats.totalRequests += len(requests)
			for _, r := range requests {
				stats.requestsByStatus[r.Status]++
			}
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific account email (optional)")
	statusFlag := flag.String("status", "", "Filter by request status: pending, approved or rejected (optional)")
	flag.Parse()

	status := strings.ToLower(*statusFlag)
	switch status {
	case "", models.WithdrawalStatusPending, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected:
	default:
		logger.Fatal("Invalid status filter", zap.String("status", *statusFlag))
	}

	logger.Info("Starting withdrawal history query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	accounts, err := common.InitializeAccounts(ctx, services.LedgerService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize accounts", zap.Error(err))
	}

	common.PrintHeader("WITHDRAWAL HISTORY REPORT", common.WideWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, services.ApiService, status, logger)

	summary := fmt.Sprintf("SUMMARY: %d requests across %d accounts (%d pending, %d approved, %d rejected; %d accounts queried)",
		stats.totalRequests, stats.accountsWithRequests,
		stats.requestsByStatus[models.WithdrawalStatusPending],
		stats.requestsByStatus[models.WithdrawalStatusApproved],
		stats.requestsByStatus[models.WithdrawalStatusRejected],
		stats.totalAccounts)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Withdrawal history query completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("accounts_with_requests", stats.accountsWithRequests),
		zap.Int("total_requests", stats.totalRequests))
}
