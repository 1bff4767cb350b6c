package models

import "time"

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Reject credit modes
const (
	RejectCreditSplit   = "split"
	RejectCreditBalance = "balance"
)

// Config represents the application configuration
type Config struct {
	Backend  string
	Database DatabaseConfig
	File     FileConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Accrual  AccrualConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	PingTimeout        time.Duration
	CreateDemoAccounts bool
}

// FileConfig holds the JSON file backend settings
type FileConfig struct {
	DataDir string
}

// RedisConfig holds the key-value backend settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	FileFallback bool
}

// LedgerConfig holds fund-accounting settings
type LedgerConfig struct {
	PolicyFile       string
	Timezone         string
	RejectCreditMode string
}

// AccrualConfig holds the background accrual sweeper settings
type AccrualConfig struct {
	PollingInterval time.Duration
	CleanupInterval time.Duration
	Workers         int
}
