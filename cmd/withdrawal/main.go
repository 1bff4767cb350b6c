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

	"yield-ledger-go/internal/common"
	"yield-ledger-go/internal/config"
	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	email         string
	amount        decimal.Decimal
	network       string
	walletAddress string
	walletName    string
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	emailFlag := flag.String("email", "", "Account email (required)")
	amountFlag := flag.String("amount", "", "Amount to withdraw (required)")
	networkFlag := flag.String("network", "", "Payout network: TRC20, ERC20 or BEP20 (required)")
	addressFlag := flag.String("address", "", "Destination wallet address (required)")
	walletNameFlag := flag.String("wallet-name", "", "Label for the destination wallet (optional)")
	flag.Parse()

	if *emailFlag == "" || *amountFlag == "" || *networkFlag == "" || *addressFlag == "" {
		return nil, fmt.Errorf("all flags are required: --email, --amount, --network, --address")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	return &withdrawalRequest{
		email:         *emailFlag,
		amount:        amount,
		network:       *networkFlag,
		walletAddress: *addressFlag,
		walletName:    *walletNameFlag,
	}, nil
}

func printEligibility(account *models.Account, summary *models.AccountSummary, eligibility models.EligibilityResult) {
	common.PrintHeader("WITHDRAWAL ELIGIBILITY", common.DefaultWidth)
	fmt.Printf("Account:           %s (%s)\n", account.FullName, account.Email)
	fmt.Printf("Balance:           %s\n", common.FormatMoney(summary.Balance))
	fmt.Printf("Profits:           %s\n", common.FormatMoney(summary.Profits))
	fmt.Printf("Last Deposit:      %s\n", common.FormatDate(account.LastDepositDate))
	fmt.Printf("Capital Unlocked:  %t\n", eligibility.CapitalUnlocked)
	if eligibility.Eligible {
		fmt.Printf("Max Withdrawable:  %s\n", common.FormatMoney(eligibility.MaxWithdrawable))
	} else {
		fmt.Printf("Not Eligible:      %s\n", eligibility.Reason)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func printRequest(request *models.WithdrawalRequest) {
	common.PrintHeader("WITHDRAWAL REQUEST SUBMITTED", common.DefaultWidth)
	fmt.Printf("Request ID:        %s\n", request.Id)
	fmt.Printf("Amount:            %s\n", common.FormatMoney(request.Amount))
	fmt.Printf("%s From profits:  %s\n", common.BoxPrefix(false), common.FormatMoney(request.AmountFromProfits))
	fmt.Printf("%s From balance:  %s\n", common.BoxPrefix(true), common.FormatMoney(request.AmountFromBalance))
	fmt.Printf("Network:           %s\n", request.Network)
	fmt.Printf("Destination:       %s\n", request.WalletAddress)
	fmt.Printf("Status:            %s (awaiting admin review)\n", request.Status)
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse and validate command line flags
	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	zap.L().Info("Starting withdrawal request",
		zap.String("email", req.email),
		zap.String("amount", req.amount.String()),
		zap.String("network", req.network))

	// Load configuration and initialize services
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := services.LedgerService.GetAccountByEmail(ctx, req.email)
	if err != nil {
		common.PrintHeader("WITHDRAWAL FAILED", common.DefaultWidth)
		fmt.Printf("Error: Account not found for email %s\n", req.email)
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Fatal("Account not found", zap.String("email", req.email), zap.Error(err))
	}

	// the command acts as the account holder
	session := models.Session{UserId: account.Id, Role: models.RoleUser}

	summary, err := services.ApiService.GetAccountSummary(ctx, session, account.Id)
	if err != nil {
		zap.L().Fatal("Failed to load account summary", zap.Error(err))
	}
	eligibility := services.ApiService.EvaluateWithdrawal(ctx, session, account.Id)
	printEligibility(account, summary, eligibility)

	result := services.ApiService.SubmitWithdrawal(ctx, session, ledger.SubmitWithdrawalParams{
		AccountId:     account.Id,
		Amount:        req.amount,
		Network:       req.network,
		WalletAddress: req.walletAddress,
		WalletName:    req.walletName,
	})
	if !result.Success {
		fmt.Printf("\n❌ Withdrawal refused: %s\n\n", result.Error)
		zap.L().Fatal("Withdrawal refused", zap.String("reason", result.Error))
	}

	printRequest(result.Request)

	zap.L().Info("Withdrawal request completed",
		zap.String("request_id", result.Request.Id),
		zap.String("user_id", account.Id),
		zap.String("amount", req.amount.String()))
}
