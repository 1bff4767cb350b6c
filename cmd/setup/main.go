package main

import (
	"context"
	"flag"
	"fmt"

	"yield-ledger-go/internal/common"
	"yield-ledger-go/internal/config"
	"yield-ledger-go/internal/filestore"
	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type demoAccount struct {
	name    string
	email   string
	deposit decimal.Decimal
}

var demoAccounts = []demoAccount{
	{"Demo Investor", "investor@example.com", decimal.NewFromInt(1000)},
	{"Demo Saver", "saver@example.com", decimal.NewFromInt(250)},
	{"Demo Newcomer", "newcomer@example.com", decimal.Zero},
}

// importDataDir copies the accounts and withdrawals collections of a JSON data directory
// into the configured store. Records are validated on read.
func importDataDir(ctx context.Context, services *common.Services, dataDir string) error {
	source, err := filestore.NewService(models.FileConfig{DataDir: dataDir})
	if err != nil {
		return err
	}
	sourceStore := store.New(source)
	defer sourceStore.Close()

	accounts, err := sourceStore.ReadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to read accounts from %s: %w", dataDir, err)
	}
	withdrawals, err := sourceStore.ReadWithdrawals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read withdrawals from %s: %w", dataDir, err)
	}

	if err := services.Store.WriteAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	if err := services.Store.WriteWithdrawals(ctx, withdrawals); err != nil {
		return fmt.Errorf("failed to write withdrawals: %w", err)
	}

	zap.L().Info("Data directory imported",
		zap.String("data_dir", dataDir),
		zap.Int("accounts", len(accounts)),
		zap.Int("withdrawals", len(withdrawals)))
	return nil
}

func createDemoAccounts(ctx context.Context, services *common.Services) {
	var created, skipped int
	for _, demo := range demoAccounts {
		account, err := services.LedgerService.RegisterAccount(ctx, ledger.RegisterParams{
			FullName: demo.name,
			Email:    demo.email,
		})
		if err != nil {
			zap.L().Info("Skipping demo account", zap.String("email", demo.email), zap.Error(err))
			skipped++
			continue
		}
		if demo.deposit.IsPositive() {
			if err := services.LedgerService.AdminRecordDeposit(ctx, account.Id, demo.deposit); err != nil {
				zap.L().Error("Failed to record demo deposit", zap.String("user_id", account.Id), zap.Error(err))
			}
		}
		created++
	}

	zap.L().Info("Demo accounts processed", zap.Int("created", created), zap.Int("skipped", skipped))
}

func printCollections(ctx context.Context, services *common.Services) {
	common.PrintHeader("LEDGER STORE", common.DefaultWidth)

	if services.DbService != nil {
		infos, err := services.DbService.ListCollections(ctx)
		if err != nil {
			zap.L().Error("Failed to list collections", zap.Error(err))
		}
		for i, info := range infos {
			fmt.Printf("%s %-12s v%-5d %8d bytes  updated %s\n",
				common.BoxPrefix(i == len(infos)-1),
				info.Key, info.Version, info.Size, info.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	accounts, err := services.Store.ReadAccounts(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read accounts", zap.Error(err))
	}
	withdrawals, err := services.Store.ReadWithdrawals(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read withdrawals", zap.Error(err))
	}

	pending := 0
	for _, w := range withdrawals {
		if w.Status == models.WithdrawalStatusPending {
			pending++
		}
	}

	common.PrintFooter(fmt.Sprintf("%d accounts, %d withdrawal requests (%d pending)", len(accounts), len(withdrawals), pending),
		common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	initFlag := flag.Bool("init", false, "Initialize the store, creating demo accounts when CREATE_DEMO_ACCOUNTS is set")
	importFlag := flag.String("import", "", "Import users.json and withdrawals.json from this data directory")
	flag.Parse()

	// Initialize services at top level
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *importFlag != "" {
		if err := importDataDir(ctx, services, *importFlag); err != nil {
			zap.L().Fatal("Import failed", zap.Error(err))
		}
	}

	if *initFlag {
		zap.L().Info("Initializing ledger store", zap.String("backend", cfg.Backend))
		if cfg.Database.CreateDemoAccounts {
			createDemoAccounts(ctx, services)
		}
		zap.L().Info("Initialization complete")
	}

	printCollections(ctx, services)
}
