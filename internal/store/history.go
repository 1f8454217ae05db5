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
	"fmt"
	"time"
)

// History stacks.
const (
	StackUndo = "undo"
	StackRedo = "redo"
)

// HistoryEntry is one persisted undo or redo snapshot of an issue.
type HistoryEntry struct {
	TS   time.Time
	Blob []byte
}

// language=SQL
const selectHistorySQL = `SELECT ts, blob FROM history WHERE issue_id = ? AND stack = ? ORDER BY pos`

// SaveHistory replaces the persisted undo and redo stacks of an issue. Entries are oldest first.
func (s *Store) SaveHistory(ctx context.Context, issueID string, undo, redo []HistoryEntry) error {
	return s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.exec(ctx, `DELETE FROM history WHERE issue_id = ?`, issueID); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		for _, st := range []struct {
			name    string
			entries []HistoryEntry
		}{{StackUndo, undo}, {StackRedo, redo}} {
			for i, e := range st.entries {
				if _, err := tx.exec(ctx, `INSERT INTO history(issue_id, stack, pos, ts, blob) VALUES (?, ?, ?, ?, ?)`,
					issueID, st.name, i, formatTime(e.TS), e.Blob); err != nil {
					return fmt.Errorf("insert history: %w", err)
				}
			}
		}
		return nil
	})
}

// LoadHistory returns the persisted undo and redo stacks of an issue, oldest first.
func (s *Store) LoadHistory(ctx context.Context, issueID string) (undo, redo []HistoryEntry, err error) {
	if undo, err = s.loadStack(ctx, issueID, StackUndo); err != nil {
		return nil, nil, err
	}
	if redo, err = s.loadStack(ctx, issueID, StackRedo); err != nil {
		return nil, nil, err
	}
	return undo, redo, nil
}

func (s *Store) loadStack(ctx context.Context, issueID, stack string) ([]HistoryEntry, error) {
	rows, err := s.query(ctx, selectHistorySQL, issueID, stack)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	var out []HistoryEntry
	for rows.Next() {
		var (
			ts string
			e  HistoryEntry
		)
		if err := rows.Scan(&ts, &e.Blob); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.TS = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
