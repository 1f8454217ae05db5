/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"comicscript/internal/version"
)

// schemaVersion tracks the database schema. Bump it together with a new step in runMigrations.
const schemaVersion = 3

func (s *Store) ensureMetaAndVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := s.exec(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := formatTime(s.Now())
	appv := version.String()
	var cur int
	err := s.queryRow(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh databases start at 1 and walk every migration step.
		if _, err := s.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema for runMigrations
		if _, err := s.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the entity tables. Every parent edge cascades on delete.
func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS series (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			synopsis    TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			cover       BLOB,
			cover_thumb BLOB,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS issues (
			id          TEXT PRIMARY KEY,
			series_id   TEXT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
			title       TEXT NOT NULL DEFAULT '',
			number      INTEGER NOT NULL,
			synopsis    TEXT NOT NULL DEFAULT '',
			writer      TEXT NOT NULL DEFAULT '',
			cover_style TEXT NOT NULL DEFAULT '',
			cover       BLOB,
			cover_thumb BLOB,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pages (
			id          TEXT PRIMARY KEY,
			issue_id    TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			number      INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS panels (
			id          TEXT PRIMARY KEY,
			page_id     TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			number      INTEGER NOT NULL,
			details     TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS characters (
			id          TEXT PRIMARY KEY,
			panel_id    TEXT NOT NULL REFERENCES panels(id) ON DELETE CASCADE,
			name        TEXT NOT NULL DEFAULT '',
			dialogue    TEXT NOT NULL DEFAULT '',
			seq         INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := s.exec(ctx, s.ddl(q)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ddl adapts column types for the active driver.
func (s *Store) ddl(q string) string {
	if s.driver == DriverPostgres {
		return strings.ReplaceAll(q, " BLOB", " BYTEA")
	}
	return q
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (s *Store) runMigrations(ctx context.Context) error {
	var cur int
	if err := s.queryRow(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		s.log.Warn("database schema is newer than this build", "schema", cur, "supported", schemaVersion)
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Foreign-key lookups used by every tree load and cascade.
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_issues_series ON issues(series_id, number);`,
				`CREATE INDEX IF NOT EXISTS idx_pages_issue ON pages(issue_id, number);`,
				`CREATE INDEX IF NOT EXISTS idx_panels_page ON panels(page_id, number);`,
				`CREATE INDEX IF NOT EXISTS idx_characters_panel ON characters(panel_id, seq);`,
			}
		case 3:
			// Undo/redo history of issue snapshots
			stmts = []string{
				s.ddl(`CREATE TABLE IF NOT EXISTS history (
					issue_id   TEXT    NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
					stack      TEXT    NOT NULL,
					pos        INTEGER NOT NULL,
					ts         TEXT    NOT NULL,
					blob       BLOB    NOT NULL,
					PRIMARY KEY(issue_id, stack, pos)
				);`),
			}
		}
		err := s.InTx(ctx, func(tx *Store) error {
			for _, q := range stmts {
				if _, err := tx.exec(ctx, q); err != nil {
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.exec(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, formatTime(tx.Now())); err != nil {
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.queryRow(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
