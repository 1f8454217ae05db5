/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"comicscript/internal/domain"
	applog "comicscript/internal/log"
	"comicscript/internal/store"
	"comicscript/internal/undo"
)

// mutate runs fn against the selected issue and records an undo snapshot when fn changed it.
func (s *Session) mutate(ctx context.Context, fn func() error) error {
	return s.mutateIssue(ctx, s.sel.Issue, fn)
}

func (s *Session) mutateIssue(ctx context.Context, issue *domain.Issue, fn func() error) error {
	if issue == nil {
		return fn()
	}
	before, err := s.snapshot(ctx, issue.ID)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	after, err := s.snapshot(ctx, issue.ID)
	if err != nil {
		return err
	}
	if bytes.Equal(before.Blob, after.Blob) {
		return nil
	}
	s.undo.Push(before)
	if err := s.persistHistory(ctx, issue.ID); err != nil {
		return err
	}
	if s.sel.Issue != nil && s.sel.Issue.ID == issue.ID {
		is, err := s.st.GetIssue(ctx, issue.ID)
		if err != nil {
			return err
		}
		s.sel.Issue = &is
	}
	return nil
}

// snapshot serializes the current tree of an issue.
func (s *Session) snapshot(ctx context.Context, issueID string) (undo.Snapshot, error) {
	t, err := s.st.LoadIssueTree(ctx, issueID)
	if err != nil {
		return undo.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	blob, err := json.Marshal(t)
	if err != nil {
		return undo.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return undo.Snapshot{IssueID: issueID, Blob: blob, TS: s.st.Now()}, nil
}

// Undo reverts the selected issue to its previous snapshot. It reports false when
// there is nothing to undo.
func (s *Session) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.undo.Undo, "undo")
}

// Redo reapplies the last undone change of the selected issue.
func (s *Session) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, s.undo.Redo, "redo")
}

func (s *Session) travel(ctx context.Context, step func(undo.Snapshot) (undo.Snapshot, bool), op string) (bool, error) {
	if s.sel.Issue == nil {
		return false, nil
	}
	id := s.sel.Issue.ID
	cur, err := s.snapshot(ctx, id)
	if err != nil {
		return false, err
	}
	target, ok := step(cur)
	if !ok {
		return false, nil
	}
	var t domain.IssueTree
	if err := json.Unmarshal(target.Blob, &t); err != nil {
		return false, fmt.Errorf("%s: decode snapshot: %w", op, err)
	}
	if err := s.svc.RestoreIssue(ctx, &t); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.persistHistory(ctx, id); err != nil {
		return false, err
	}
	applog.WithOperation(s.log, op).Debug("issue restored", slog.String("issue", id))
	return true, s.refresh(ctx)
}

// CanUndo reports the depth of the undo and redo stacks of the selected issue.
func (s *Session) CanUndo() (undoDepth, redoDepth int) {
	if s.sel.Issue == nil {
		return 0, 0
	}
	u, r := s.undo.Stacks(s.sel.Issue.ID)
	return len(u), len(r)
}

// HistoryBytes is the size of all snapshots held in memory.
func (s *Session) HistoryBytes() int {
	b, _, _ := s.undo.Stats()
	return b
}

func (s *Session) persistHistory(ctx context.Context, issueID string) error {
	u, r := s.undo.Stacks(issueID)
	if err := s.st.SaveHistory(ctx, issueID, toEntries(u), toEntries(r)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s *Session) loadHistory(ctx context.Context, issueID string) error {
	u, r, err := s.st.LoadHistory(ctx, issueID)
	if err != nil {
		return err
	}
	s.undo.Load(issueID, fromEntries(issueID, u), fromEntries(issueID, r))
	return nil
}

func toEntries(ss []undo.Snapshot) []store.HistoryEntry {
	out := make([]store.HistoryEntry, len(ss))
	for i, sn := range ss {
		out[i] = store.HistoryEntry{TS: sn.TS, Blob: sn.Blob}
	}
	return out
}

func fromEntries(issueID string, es []store.HistoryEntry) []undo.Snapshot {
	out := make([]undo.Snapshot, len(es))
	for i, e := range es {
		out[i] = undo.Snapshot{IssueID: issueID, TS: e.TS, Blob: e.Blob}
	}
	return out
}
