package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yield-ledger-go/internal/store"

	"go.uber.org/zap"
)

// CollectionInfo describes one stored collection document
type CollectionInfo struct {
	Key       string
	Version   int64
	Size      int64
	UpdatedAt time.Time
}

// Load returns the JSON document stored under key with its version as the revision
func (s *Service) Load(ctx context.Context, key string) ([]byte, int64, error) {
	zap.L().Debug("Loading collection", zap.String("collection", key))

	var data string
	var version int64
	err := s.db.QueryRowContext(ctx, queryGetCollection, key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NoRevision, nil
	}
	if err != nil {
		zap.L().Error("Failed to load collection", zap.String("collection", key), zap.Error(err))
		return nil, store.NoRevision, fmt.Errorf("unable to load collection %s: %w", key, err)
	}

	return []byte(data), version, nil
}

// Save replaces the JSON document stored under key when its version still equals expected
func (s *Service) Save(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if expected == store.AnyRevision {
		var version int64
		if err := s.db.QueryRowContext(ctx, queryUpsertCollection, key, string(data)).Scan(&version); err != nil {
			zap.L().Error("Failed to save collection", zap.String("collection", key), zap.Error(err))
			return store.NoRevision, fmt.Errorf("unable to save collection %s: %w", key, err)
		}
		zap.L().Debug("Collection saved", zap.String("collection", key), zap.Int64("version", version))
		return version, nil
	}

	var (
		result sql.Result
		err    error
	)
	if expected == store.NoRevision {
		result, err = s.db.ExecContext(ctx, queryInsertCollection, key, string(data))
	} else {
		result, err = s.db.ExecContext(ctx, queryUpdateCollection, string(data), key, expected)
	}
	if err != nil {
		zap.L().Error("Failed to save collection", zap.String("collection", key), zap.Error(err))
		return store.NoRevision, fmt.Errorf("unable to save collection %s: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NoRevision, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.NoRevision, fmt.Errorf("collection %s moved past version %d: %w", key, expected, store.ErrConflict)
	}

	zap.L().Debug("Collection saved",
		zap.String("collection", key),
		zap.Int64("version", expected+1),
		zap.Int("bytes", len(data)))
	return expected + 1, nil
}

// ListCollections reports every stored collection with its version
func (s *Service) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, queryListCollections)
	if err != nil {
		return nil, fmt.Errorf("unable to list collections: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Key, &info.Version, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan collection row: %w", err)
		}
		infos = append(infos, info)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection rows: %w", err)
	}

	return infos, nil
}
