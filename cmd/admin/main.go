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
	"os"

	"yield-ledger-go/internal/common"
	"yield-ledger-go/internal/config"
	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const usage = `Usage: admin <command> [flags]

Commands:
  pending       list pending withdrawal requests
  approve       approve a pending request        --request <id>
  reject        reject a pending request         --request <id>
  set-balance   overwrite an account balance     --account <id> --balance <amount> [--reset-deposit]
  deposit       record a confirmed deposit       --account <id> --amount <amount>
  set-period    set the withdrawal period        --account <id> --days <n>
  capitalize    move profits into the balance    --account <id>
  mark-pending  flag an announced deposit        --account <id>
  delete        delete an account                --account <id>
`

type command struct {
	name      string
	accountId string
	requestId string
	amount    decimal.Decimal
	days      int
	reset     bool
}

func parseCommand(args []string) (*command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command")
	}

	cmd := &command{name: args[0]}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	accountFlag := fs.String("account", "", "Account id")
	requestFlag := fs.String("request", "", "Withdrawal request id")
	amountFlag := fs.String("amount", "", "Deposit amount")
	balanceFlag := fs.String("balance", "", "New balance")
	daysFlag := fs.Int("days", 0, "Withdrawal period in days")
	resetFlag := fs.Bool("reset-deposit", false, "Treat the new balance as a deposit confirmed today")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	cmd.accountId = *accountFlag
	cmd.requestId = *requestFlag
	cmd.days = *daysFlag
	cmd.reset = *resetFlag

	switch cmd.name {
	case "pending":
	case "approve", "reject":
		if cmd.requestId == "" {
			return nil, fmt.Errorf("%s requires --request", cmd.name)
		}
	case "set-balance":
		if cmd.accountId == "" || *balanceFlag == "" {
			return nil, fmt.Errorf("set-balance requires --account and --balance")
		}
		balance, err := decimal.NewFromString(*balanceFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid balance format: %w", err)
		}
		cmd.amount = balance
	case "deposit":
		if cmd.accountId == "" || *amountFlag == "" {
			return nil, fmt.Errorf("deposit requires --account and --amount")
		}
		amount, err := decimal.NewFromString(*amountFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid amount format: %w", err)
		}
		cmd.amount = amount
	case "set-period", "capitalize", "mark-pending", "delete":
		if cmd.accountId == "" {
			return nil, fmt.Errorf("%s requires --account", cmd.name)
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.name)
	}

	return cmd, nil
}

func printPending(requests []models.WithdrawalRequest) {
	common.PrintHeader("PENDING WITHDRAWAL REQUESTS", common.WideWidth)
	for i, r := range requests {
		isLast := i == len(requests)-1
		fmt.Printf("%s %s  %-20s %12s  %-6s %s\n",
			common.BoxPrefix(isLast), r.Id, r.UserName, common.FormatMoney(r.Amount), r.Network, r.WalletAddress)
		fmt.Printf("%s   profits %s, balance %s, created %s\n",
			common.BoxDetailPrefix(isLast),
			common.FormatMoney(r.AmountFromProfits), common.FormatMoney(r.AmountFromBalance),
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	common.PrintFooter(fmt.Sprintf("%d pending requests", len(requests)), common.WideWidth)
}

func run(ctx context.Context, services *common.Services, cmd *command) *models.OperationResult {
	api := services.ApiService
	session := common.AdminSession()

	switch cmd.name {
	case "pending":
		requests, err := api.ListPendingWithdrawals(ctx, session)
		if err != nil {
			return &models.OperationResult{Success: false, Error: err.Error()}
		}
		printPending(requests)
		return &models.OperationResult{Success: true}
	case "approve":
		return api.AdminApprove(ctx, session, cmd.requestId)
	case "reject":
		return api.AdminReject(ctx, session, cmd.requestId)
	case "set-balance":
		return api.AdminSetBalance(ctx, session, cmd.accountId, cmd.amount, cmd.reset)
	case "deposit":
		return api.AdminRecordDeposit(ctx, session, cmd.accountId, cmd.amount)
	case "set-period":
		return api.AdminSetWithdrawalPeriod(ctx, session, cmd.accountId, cmd.days)
	case "capitalize":
		return api.CapitalizeProfits(ctx, session, cmd.accountId)
	case "mark-pending":
		return api.MarkPendingDeposit(ctx, session, cmd.accountId)
	case "delete":
		return api.AdminDeleteAccount(ctx, session, cmd.accountId)
	}
	return &models.OperationResult{Success: false, Error: "unknown command"}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		zap.L().Fatal("Invalid command", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result := run(ctx, services, cmd)
	if !result.Success {
		fmt.Printf("❌ %s failed: %s\n", cmd.name, result.Error)
		zap.L().Fatal("Admin command failed", zap.String("command", cmd.name), zap.String("reason", result.Error))
	}

	if cmd.name != "pending" {
		fmt.Printf("✅ %s completed\n", cmd.name)
	}
	zap.L().Info("Admin command completed",
		zap.String("command", cmd.name),
		zap.String("account_id", cmd.accountId),
		zap.String("request_id", cmd.requestId))
}
