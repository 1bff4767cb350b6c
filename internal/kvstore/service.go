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

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ store.Backend = (*Service)(nil)

const (
	fieldData     = "data"
	fieldRevision = "rev"
)

// Service stores each collection as a Redis hash holding the document and a revision counter.
// Conditional saves run under WATCH so a concurrent writer aborts the transaction.
type Service struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Open builds the client without contacting the server
func Open(cfg models.RedisConfig) (*Service, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if cfg.DialTimeout <= 0 {
		return nil, fmt.Errorf("redis dial timeout must be positive, got %v", cfg.DialTimeout)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewServiceWithClient(client, cfg.KeyPrefix), nil
}

func NewService(ctx context.Context, cfg models.RedisConfig) (*Service, error) {
	service, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := service.Ping(pingCtx); err != nil {
		service.Close()
		return nil, fmt.Errorf("unable to reach redis at %s: %w", cfg.Address, err)
	}

	zap.L().Info("Redis store initialized",
		zap.String("address", cfg.Address),
		zap.Int("db", cfg.DB),
		zap.String("key_prefix", cfg.KeyPrefix))

	return service, nil
}

func NewServiceWithClient(client redis.UniversalClient, keyPrefix string) *Service {
	return &Service{client: client, keyPrefix: keyPrefix}
}

func (s *Service) key(name string) string {
	return s.keyPrefix + name
}

func (s *Service) Load(ctx context.Context, key string) ([]byte, int64, error) {
	return s.load(ctx, s.client, s.key(key))
}

type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func (s *Service) load(ctx context.Context, c hashReader, key string) ([]byte, int64, error) {
	values, err := c.HMGet(ctx, key, fieldData, fieldRevision).Result()
	if err != nil {
		return nil, store.NoRevision, fmt.Errorf("redis hmget %s: %w", key, err)
	}
	if values[0] == nil {
		return nil, store.NoRevision, nil
	}

	data, ok := values[0].(string)
	if !ok {
		return nil, store.NoRevision, fmt.Errorf("redis %s: unexpected %s field %T", key, fieldData, values[0])
	}
	var revision int64
	if raw, ok := values[1].(string); ok {
		var err error
		if revision, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, store.NoRevision, fmt.Errorf("redis %s: bad revision %q: %w", key, raw, err)
		}
	}
	return []byte(data), revision, nil
}

func (s *Service) Save(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	key = s.key(key)

	var incr *redis.IntCmd
	write := func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldData, data)
		incr = pipe.HIncrBy(ctx, key, fieldRevision, 1)
		return nil
	}

	if expected == store.AnyRevision {
		if _, err := s.client.TxPipelined(ctx, write); err != nil {
			return store.NoRevision, fmt.Errorf("redis save %s: %w", key, err)
		}
		return incr.Val(), nil
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		_, current, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return fmt.Errorf("%s at revision %d, expected %d: %w", key, current, expected, store.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, write)
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return store.NoRevision, fmt.Errorf("%s written during transaction: %w", key, store.ErrConflict)
	}
	if err != nil {
		return store.NoRevision, fmt.Errorf("redis save %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Service) Close() {
	if err := s.client.Close(); err != nil {
		zap.L().Warn("Failed to close redis client", zap.Error(err))
	}
}
