/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session holds the editing position of one writer: which series, issue, page
// and panel are selected. It forwards edits to the tree service, feeds completed lines to
// the inline command interpreter, keeps the selection valid across deletes and records
// undo snapshots per issue.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"comicscript/internal/command"
	"comicscript/internal/domain"
	applog "comicscript/internal/log"
	"comicscript/internal/store"
	"comicscript/internal/tree"
	"comicscript/internal/undo"
)

// ErrNoSelection is returned when an action needs a selected entity that is missing.
var ErrNoSelection = errors.New("nothing selected")

// Selection is the current editing position. Members below a nil member are nil.
type Selection struct {
	Series *domain.Series
	Issue  *domain.Issue
	Page   *domain.Page
	Panel  *domain.Panel
}

// Session is the explicit view state. It is not safe for concurrent use.
type Session struct {
	st     *store.Store
	svc    *tree.Service
	interp *command.Interpreter
	undo   *undo.Manager
	sel    Selection
	log    *slog.Logger
}

// New creates a session over st with an empty selection.
func New(st *store.Store, cfg undo.Config) *Session {
	s := &Session{
		st:   st,
		svc:  tree.New(st),
		undo: undo.NewManager(cfg),
		log:  applog.WithComponent("session"),
	}
	s.interp = command.NewInterpreter(mutator{s})
	return s
}

// Service exposes the underlying tree service for read access.
func (s *Session) Service() *tree.Service { return s.svc }

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection { return s.sel }

// SelectSeries selects a series by ID and clears everything below it.
func (s *Session) SelectSeries(ctx context.Context, id string) error {
	se, err := s.st.GetSeries(ctx, id)
	if err != nil {
		return fmt.Errorf("select series: %w", err)
	}
	s.sel = Selection{Series: &se}
	return nil
}

// SelectIssue selects an issue by ID together with its series, loads its persisted undo
// history and selects its first page and panel.
func (s *Session) SelectIssue(ctx context.Context, id string) error {
	is, err := s.st.GetIssue(ctx, id)
	if err != nil {
		return fmt.Errorf("select issue: %w", err)
	}
	se, err := s.st.GetSeries(ctx, is.SeriesID)
	if err != nil {
		return fmt.Errorf("select issue: %w", err)
	}
	s.sel = Selection{Series: &se, Issue: &is}
	if err := s.loadHistory(ctx, is.ID); err != nil {
		return err
	}
	return s.selectPageAt(ctx, 1)
}

// SelectPage selects the page with the given number in the current issue and its first panel.
func (s *Session) SelectPage(ctx context.Context, number int) error {
	if s.sel.Issue == nil {
		return ErrNoSelection
	}
	pages, err := s.st.ListPages(ctx, s.sel.Issue.ID)
	if err != nil {
		return err
	}
	for i := range pages {
		if pages[i].Number == number {
			return s.setPage(ctx, &pages[i])
		}
	}
	return fmt.Errorf("page %d: %w", number, store.ErrNotFound)
}

// SelectPanel selects the panel with the given number on the current page.
func (s *Session) SelectPanel(ctx context.Context, number int) error {
	if s.sel.Page == nil {
		return ErrNoSelection
	}
	panels, err := s.st.ListPanels(ctx, s.sel.Page.ID)
	if err != nil {
		return err
	}
	for i := range panels {
		if panels[i].Number == number {
			s.sel.Panel = &panels[i]
			return nil
		}
	}
	return fmt.Errorf("panel %d: %w", number, store.ErrNotFound)
}

// selectPageAt selects the page numbered n, or the last page when fewer exist.
// An issue without pages leaves page and panel unselected.
func (s *Session) selectPageAt(ctx context.Context, n int) error {
	s.sel.Page, s.sel.Panel = nil, nil
	if s.sel.Issue == nil {
		return nil
	}
	pages, err := s.st.ListPages(ctx, s.sel.Issue.ID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}
	i := clamp(n, len(pages)) - 1
	return s.setPage(ctx, &pages[i])
}

// selectPanelAt selects the panel numbered n on the current page, or its last panel.
func (s *Session) selectPanelAt(ctx context.Context, n int) error {
	s.sel.Panel = nil
	if s.sel.Page == nil {
		return nil
	}
	panels, err := s.st.ListPanels(ctx, s.sel.Page.ID)
	if err != nil {
		return err
	}
	if len(panels) == 0 {
		return nil
	}
	s.sel.Panel = &panels[clamp(n, len(panels))-1]
	return nil
}

func (s *Session) setPage(ctx context.Context, p *domain.Page) error {
	s.sel.Page = p
	return s.selectPanelAt(ctx, 1)
}

func clamp(n, size int) int {
	if n < 1 {
		return 1
	}
	if n > size {
		return size
	}
	return n
}

// refresh reloads the selected entities so numbers and timestamps are current.
// Entities that no longer exist are replaced by the nearest neighbour.
func (s *Session) refresh(ctx context.Context) error {
	if s.sel.Issue == nil {
		return nil
	}
	is, err := s.st.GetIssue(ctx, s.sel.Issue.ID)
	if err != nil {
		return err
	}
	s.sel.Issue = &is
	if s.sel.Page == nil {
		return s.selectPageAt(ctx, 1)
	}
	pageNum, panelNum := s.sel.Page.Number, 1
	if s.sel.Panel != nil {
		panelNum = s.sel.Panel.Number
	}
	p, err := s.st.GetPage(ctx, s.sel.Page.ID)
	if errors.Is(err, store.ErrNotFound) {
		return s.selectPageAt(ctx, pageNum)
	}
	if err != nil {
		return err
	}
	s.sel.Page = &p
	if s.sel.Panel == nil {
		return s.selectPanelAt(ctx, 1)
	}
	pn, err := s.st.GetPanel(ctx, s.sel.Panel.ID)
	if errors.Is(err, store.ErrNotFound) {
		return s.selectPanelAt(ctx, panelNum)
	}
	if err != nil {
		return err
	}
	s.sel.Panel = &pn
	return nil
}

// SelectIssueNumber selects the issue with the given number in the current series.
func (s *Session) SelectIssueNumber(ctx context.Context, number int) error {
	if s.sel.Series == nil {
		return ErrNoSelection
	}
	issues, err := s.st.ListIssues(ctx, s.sel.Series.ID)
	if err != nil {
		return err
	}
	for _, is := range issues {
		if is.Number == number {
			return s.SelectIssue(ctx, is.ID)
		}
	}
	return fmt.Errorf("issue %d: %w", number, store.ErrNotFound)
}

// IDs is a selection reduced to entity IDs, suitable for saving between runs.
type IDs struct {
	Series string `yaml:"series,omitempty"`
	Issue  string `yaml:"issue,omitempty"`
	Page   string `yaml:"page,omitempty"`
	Panel  string `yaml:"panel,omitempty"`
}

// IDs returns the IDs of the selected entities.
func (sel Selection) IDs() IDs {
	var out IDs
	if sel.Series != nil {
		out.Series = sel.Series.ID
	}
	if sel.Issue != nil {
		out.Issue = sel.Issue.ID
	}
	if sel.Page != nil {
		out.Page = sel.Page.ID
	}
	if sel.Panel != nil {
		out.Panel = sel.Panel.ID
	}
	return out
}

// Resume restores a saved selection. Entities that no longer exist are dropped and the
// selection stops at the deepest one still present.
func (s *Session) Resume(ctx context.Context, ids IDs) error {
	s.sel = Selection{}
	if ids.Issue != "" {
		err := s.SelectIssue(ctx, ids.Issue)
		if err == nil {
			return s.resumeContent(ctx, ids)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if ids.Series == "" {
		return nil
	}
	if err := s.SelectSeries(ctx, ids.Series); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Session) resumeContent(ctx context.Context, ids IDs) error {
	if ids.Page == "" {
		return nil
	}
	p, err := s.st.GetPage(ctx, ids.Page)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.IssueID != s.sel.Issue.ID) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.setPage(ctx, &p); err != nil {
		return err
	}
	if ids.Panel == "" {
		return nil
	}
	pn, err := s.st.GetPanel(ctx, ids.Panel)
	if errors.Is(err, store.ErrNotFound) || (err == nil && pn.PageID != p.ID) {
		return nil
	}
	if err != nil {
		return err
	}
	s.sel.Panel = &pn
	return nil
}
