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

	"yield-ledger-go/internal/store"

	"go.uber.org/zap"
)

var _ store.Backend = (*FallbackBackend)(nil)

// FallbackBackend keeps a secondary backend as a write-through mirror of the key-value store.
// Writes succeed only when the primary accepts them and are then copied to the mirror, so the
// mirror never holds a document the primary lacks. Reads use the mirror only while the primary
// is failing.
type FallbackBackend struct {
	primary   store.Backend
	secondary store.Backend
}

func NewFallbackBackend(primary, secondary store.Backend) *FallbackBackend {
	return &FallbackBackend{primary: primary, secondary: secondary}
}

func (f *FallbackBackend) Load(ctx context.Context, key string) ([]byte, int64, error) {
	data, revision, err := f.primary.Load(ctx, key)
	if err == nil && revision != store.NoRevision {
		return data, revision, nil
	}
	if err != nil {
		zap.L().Warn("Primary store read failed, serving mirror",
			zap.String("collection", key),
			zap.Error(err))
		return f.secondary.Load(ctx, key)
	}

	// primary is empty: seed from the mirror, keeping NoRevision so the next save creates the key
	mirrored, _, mirrorErr := f.secondary.Load(ctx, key)
	if mirrorErr != nil {
		zap.L().Warn("Mirror read failed", zap.String("collection", key), zap.Error(mirrorErr))
		return nil, store.NoRevision, nil
	}
	return mirrored, store.NoRevision, nil
}

func (f *FallbackBackend) Save(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	revision, err := f.primary.Save(ctx, key, data, expected)
	if err != nil {
		return store.NoRevision, err
	}

	if _, mirrorErr := f.secondary.Save(ctx, key, data, store.AnyRevision); mirrorErr != nil {
		zap.L().Warn("Mirror write failed",
			zap.String("collection", key),
			zap.Error(mirrorErr))
	}
	return revision, nil
}

func (f *FallbackBackend) Close() {
	f.primary.Close()
	f.secondary.Close()
}
