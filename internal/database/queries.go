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

package database

const (
	schema = `
	-- Each collection is stored whole as a JSON document under its key
	CREATE TABLE IF NOT EXISTS collections (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_collections_updated_at ON collections(updated_at);
	`

	queryGetCollection = `
		SELECT data, version
		FROM collections
		WHERE key = ?`

	queryUpsertCollection = `
		INSERT INTO collections (key, data, version, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			version = collections.version + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING version`

	// Succeeds only while the key is still absent
	queryInsertCollection = `
		INSERT INTO collections (key, data, version, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO NOTHING`

	// Succeeds only while the stored version is the one the writer read
	queryUpdateCollection = `
		UPDATE collections
		SET data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE key = ? AND version = ?`

	queryListCollections = `
		SELECT key, version, LENGTH(data), updated_at
		FROM collections
		ORDER BY key`
)
