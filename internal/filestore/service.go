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

package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var _ store.Backend = (*Service)(nil)

const (
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 5 * time.Millisecond
)

// Service keeps each collection in <dataDir>/<key>.json. Writers from any process serialize on
// <dataDir>/<key>.lock; a document's revision is the hash of its content.
type Service struct {
	dataDir string
}

func NewService(cfg models.FileConfig) (*Service, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create data directory: %w", err)
	}

	zap.L().Info("File store initialized", zap.String("data_dir", cfg.DataDir))
	return &Service{dataDir: cfg.DataDir}, nil
}

func (s *Service) Close() {}

func (s *Service) path(key string) string {
	return filepath.Join(s.dataDir, key+".json")
}

// revisionOf never returns NoRevision or AnyRevision for an existing document
func revisionOf(data []byte) int64 {
	revision := int64(xxhash.Sum64(data) >> 1)
	if revision == store.NoRevision {
		return 1
	}
	return revision
}

func (s *Service) Load(ctx context.Context, key string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NoRevision, err
	}
	return s.read(key)
}

func (s *Service) read(key string) ([]byte, int64, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.NoRevision, nil
	}
	if err != nil {
		return nil, store.NoRevision, fmt.Errorf("unable to read %s: %w", s.path(key), err)
	}
	return data, revisionOf(data), nil
}

// Save checks the revision and replaces the document while holding the key's lock file. The new
// content is written to a temporary file and renamed over the target so readers never see a
// partial document.
func (s *Service) Save(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return store.NoRevision, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(filepath.Join(s.dataDir, key+".lock"))
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		return store.NoRevision, fmt.Errorf("unable to lock %s: %w", key, errors.Join(err, lockCtx.Err()))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			zap.L().Warn("Failed to release collection lock", zap.String("collection", key), zap.Error(err))
		}
	}()

	if expected != store.AnyRevision {
		_, current, err := s.read(key)
		if err != nil {
			return store.NoRevision, err
		}
		if current != expected {
			return store.NoRevision, fmt.Errorf("%s changed on disk: %w", s.path(key), store.ErrConflict)
		}
	}

	tmp, err := os.CreateTemp(s.dataDir, key+".*.tmp")
	if err != nil {
		return store.NoRevision, fmt.Errorf("unable to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return store.NoRevision, fmt.Errorf("unable to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return store.NoRevision, fmt.Errorf("unable to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return store.NoRevision, fmt.Errorf("unable to replace %s: %w", s.path(key), err)
	}

	zap.L().Debug("Collection written", zap.String("file", s.path(key)), zap.Int("bytes", len(data)))
	return revisionOf(data), nil
}
