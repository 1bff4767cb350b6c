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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	nameFlag := flag.String("name", "", "Account holder's full name (required)")
	emailFlag := flag.String("email", "", "Account holder's email address (required)")
	ageFlag := flag.Int("age", 0, "Account holder's age (optional)")
	countryFlag := flag.String("country", "", "Account holder's country (optional)")
	flag.Parse()

	// Validate required flags
	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}

	zap.L().Info("Starting account registration",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, result := services.ApiService.RegisterAccount(ctx, ledger.RegisterParams{
		FullName: *nameFlag,
		Email:    *emailFlag,
		Age:      *ageFlag,
		Country:  *countryFlag,
	})
	if !result.Success {
		zap.L().Fatal("Failed to register account", zap.String("reason", result.Error))
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:                %s\n", account.Id)
	fmt.Printf("Name:              %s\n", account.FullName)
	fmt.Printf("Email:             %s\n", account.Email)
	fmt.Printf("Joined:            %s\n", account.JoinDate.String())
	fmt.Printf("Withdrawal Period: %d days\n", account.WithdrawalPeriod)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	fmt.Println("The account accrues profit once an admin confirms a deposit:")
	fmt.Printf("  go run ./cmd/admin deposit --account %s --amount <amount>\n\n", account.Id)

	zap.L().Info("Account created successfully", zap.String("id", account.Id))
}
