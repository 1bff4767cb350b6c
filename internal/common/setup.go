package common

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"yield-ledger-go/internal/api"
	"yield-ledger-go/internal/database"
	"yield-ledger-go/internal/filestore"
	"yield-ledger-go/internal/kvstore"
	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		// godotenv returns an error if .env doesn't exist
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store         *store.Store
	LedgerService *ledger.Service
	ApiService    *api.LedgerService
	// DbService is set only for the sqlite backend
	DbService *database.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	backend, dbService, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(backend)

	policy, err := LoadPolicy(cfg.Ledger.PolicyFile)
	if err != nil {
		st.Close()
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Ledger.Timezone)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("invalid ledger timezone %q: %w", cfg.Ledger.Timezone, err)
	}

	ledgerService, err := ledger.NewService(ledger.Config{
		Store:            st,
		Policy:           policy,
		Location:         location,
		RejectCreditMode: cfg.Ledger.RejectCreditMode,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &Services{
		Store:         st,
		LedgerService: ledgerService,
		ApiService:    api.NewLedgerService(ledgerService),
		DbService:     dbService,
	}, nil
}

// OpenBackend connects the configured persistence backend. The database service is returned
// separately when the backend is sqlite so callers can inspect it.
func OpenBackend(ctx context.Context, cfg *models.Config) (store.Backend, *database.Service, error) {
	zap.L().Info("Opening ledger store", zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case models.BackendSQLite:
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return dbService, dbService, nil

	case models.BackendFile:
		fileService, err := filestore.NewService(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return fileService, nil, nil

	case models.BackendRedis:
		if !cfg.Redis.FileFallback {
			redisService, err := kvstore.NewService(ctx, cfg.Redis)
			if err != nil {
				return nil, nil, err
			}
			return redisService, nil, nil
		}

		fileService, err := filestore.NewService(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		redisService, err := kvstore.NewService(ctx, cfg.Redis)
		if err != nil {
			// keep Redis authoritative: writes fail until it returns, reads are served from the mirror
			zap.L().Warn("Redis unavailable, serving reads from the file mirror",
				zap.String("address", cfg.Redis.Address),
				zap.String("data_dir", cfg.File.DataDir),
				zap.Error(err))
			if redisService, err = kvstore.Open(cfg.Redis); err != nil {
				return nil, nil, err
			}
		}
		zap.L().Info("Redis store mirrored to files", zap.String("data_dir", cfg.File.DataDir))
		return kvstore.NewFallbackBackend(redisService, fileService), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

// AdminSession is the session command-line tools act under
func AdminSession() models.Session {
	return models.Session{UserId: "cli-admin", Role: models.RoleAdmin}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
