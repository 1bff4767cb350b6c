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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"yield-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	redisDialTimeout, err := getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	accrualPolling, err := getEnvDuration("ACCRUAL_POLLING_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	accrualCleanup, err := getEnvDuration("ACCRUAL_CLEANUP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("STORE_BACKEND", models.BackendSQLite))
	switch backend {
	case models.BackendSQLite, models.BackendFile, models.BackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: expected %s, %s or %s",
			backend, models.BackendSQLite, models.BackendFile, models.BackendRedis)
	}

	rejectMode := strings.ToLower(getEnvString("REJECT_CREDIT_MODE", models.RejectCreditSplit))
	if rejectMode != models.RejectCreditSplit && rejectMode != models.RejectCreditBalance {
		return nil, fmt.Errorf("invalid REJECT_CREDIT_MODE %q: expected %s or %s",
			rejectMode, models.RejectCreditSplit, models.RejectCreditBalance)
	}

	return &models.Config{
		Backend: backend,
		Database: models.DatabaseConfig{
			Path:               getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:    connMaxLifetime,
			ConnMaxIdleTime:    connMaxIdleTime,
			PingTimeout:        pingTimeout,
			CreateDemoAccounts: getEnvBool("CREATE_DEMO_ACCOUNTS", false),
		},
		File: models.FileConfig{
			DataDir: getEnvString("DATA_DIR", "data"),
		},
		Redis: models.RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getEnvInt("REDIS_DB", 0),
			KeyPrefix:    getEnvString("REDIS_KEY_PREFIX", "ledger:"),
			DialTimeout:  redisDialTimeout,
			FileFallback: getEnvBool("REDIS_FILE_FALLBACK", true),
		},
		Ledger: models.LedgerConfig{
			PolicyFile:       os.Getenv("LEDGER_POLICY_FILE"),
			Timezone:         getEnvString("LEDGER_TIMEZONE", "UTC"),
			RejectCreditMode: rejectMode,
		},
		Accrual: models.AccrualConfig{
			PollingInterval: accrualPolling,
			CleanupInterval: accrualCleanup,
			Workers:         getEnvInt("ACCRUAL_WORKERS", 4),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
