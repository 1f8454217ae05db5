/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"

	"comicscript/internal/command"
	"comicscript/internal/domain"
)

// AddSeries creates a series and selects it.
func (s *Session) AddSeries(ctx context.Context, tmpl domain.Series) (*domain.Series, error) {
	se, err := s.svc.AddSeries(ctx, tmpl)
	if err != nil {
		return nil, err
	}
	s.sel = Selection{Series: se}
	return se, nil
}

// AddIssue creates an issue in the selected series and selects it.
func (s *Session) AddIssue(ctx context.Context, tmpl domain.Issue) (*domain.Issue, error) {
	is, err := s.svc.AddIssue(ctx, s.sel.Series, tmpl)
	if err != nil || is == nil {
		return is, err
	}
	s.sel.Issue, s.sel.Page, s.sel.Panel = is, nil, nil
	s.undo.Clear(is.ID)
	return is, nil
}

// AddPage appends a page to the selected issue and selects it with its first panel.
func (s *Session) AddPage(ctx context.Context) (*domain.Page, error) {
	return mutator{s}.AddPage(ctx, s.sel.Issue)
}

// AddPanel appends a panel to the selected page and selects it.
func (s *Session) AddPanel(ctx context.Context) (*domain.Panel, error) {
	return mutator{s}.AddPanel(ctx, s.sel.Page)
}

// AddCharacter appends a dialogue element to the selected panel.
func (s *Session) AddCharacter(ctx context.Context, name, dialogue string) (*domain.Character, error) {
	return mutator{s}.AddCharacter(ctx, s.sel.Panel, name, dialogue)
}

// Type handles a line-completion event in a text field at the current selection.
// Recognised inline commands are applied and the selection follows the new entity.
func (s *Session) Type(ctx context.Context, field string) (command.Result, error) {
	c := command.Context{Issue: s.sel.Issue, Page: s.sel.Page, Panel: s.sel.Panel}
	return s.interp.Submit(ctx, c, field)
}

// DeleteSeries removes the selected series and clears the selection.
func (s *Session) DeleteSeries(ctx context.Context) error {
	se := s.sel.Series
	if se == nil {
		return nil
	}
	if s.sel.Issue != nil {
		s.undo.Clear(s.sel.Issue.ID)
	}
	if err := s.svc.DeleteSeries(ctx, se); err != nil {
		return err
	}
	s.sel = Selection{}
	return nil
}

// DeleteIssue removes the selected issue. The series stays selected.
// Deleting an issue drops its undo history and cannot be undone.
func (s *Session) DeleteIssue(ctx context.Context) error {
	is := s.sel.Issue
	if is == nil {
		return nil
	}
	if err := s.svc.DeleteIssue(ctx, is); err != nil {
		return err
	}
	s.undo.Clear(is.ID)
	s.sel.Issue, s.sel.Page, s.sel.Panel = nil, nil, nil
	return nil
}

// DeletePage removes the selected page. The page now holding the same number is selected,
// or the new last page when the deleted page was last.
func (s *Session) DeletePage(ctx context.Context) error {
	p := s.sel.Page
	if p == nil {
		return nil
	}
	err := s.mutate(ctx, func() error { return s.svc.DeletePage(ctx, p) })
	if err != nil {
		return err
	}
	return s.selectPageAt(ctx, p.Number)
}

// DeletePanel removes the selected panel and selects its neighbour on the same page.
func (s *Session) DeletePanel(ctx context.Context) error {
	pn := s.sel.Panel
	if pn == nil {
		return nil
	}
	if err := s.mutate(ctx, func() error { return s.svc.DeletePanel(ctx, pn) }); err != nil {
		return err
	}
	return s.selectPanelAt(ctx, pn.Number)
}

// DuplicatePanel copies the selected panel to the end of its page and selects the copy.
func (s *Session) DuplicatePanel(ctx context.Context) (*domain.Panel, error) {
	var cp *domain.Panel
	err := s.mutate(ctx, func() (err error) {
		cp, err = s.svc.DuplicatePanel(ctx, s.sel.Panel)
		return err
	})
	if err != nil || cp == nil {
		return cp, err
	}
	s.sel.Panel = cp
	return cp, nil
}

// UpdatePanelDetails replaces the description of the selected panel.
func (s *Session) UpdatePanelDetails(ctx context.Context, details string) error {
	return s.mutate(ctx, func() error { return s.svc.UpdatePanelDetails(ctx, s.sel.Panel, details) })
}

// MoveDialogueElement reorders the selected panel's elements (0-based positions).
func (s *Session) MoveDialogueElement(ctx context.Context, from, to int) error {
	return s.mutate(ctx, func() error { return s.svc.MoveDialogueElement(ctx, s.sel.Panel, from, to) })
}

// Elements returns the dialogue elements of the selected panel in display order.
func (s *Session) Elements(ctx context.Context) ([]domain.Character, error) {
	if s.sel.Panel == nil {
		return nil, ErrNoSelection
	}
	return s.st.ListCharacters(ctx, s.sel.Panel.ID)
}

// element returns the element at 1-based position n of the selected panel.
func (s *Session) element(ctx context.Context, n int) (*domain.Character, error) {
	cs, err := s.Elements(ctx)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(cs) {
		return nil, nil
	}
	return &cs[n-1], nil
}

// UpdateDialogue replaces the text of the element at 1-based position n.
// An out-of-range position is a no-op.
func (s *Session) UpdateDialogue(ctx context.Context, n int, text string) error {
	c, err := s.element(ctx, n)
	if err != nil || c == nil {
		return err
	}
	return s.mutate(ctx, func() error { return s.svc.UpdateDialogue(ctx, c, text) })
}

// RenameCharacter replaces the speaker name of the element at 1-based position n.
func (s *Session) RenameCharacter(ctx context.Context, n int, name string) error {
	c, err := s.element(ctx, n)
	if err != nil || c == nil {
		return err
	}
	return s.mutate(ctx, func() error { return s.svc.RenameCharacter(ctx, c, name) })
}

// DeleteDialogueElement removes the element at 1-based position n.
func (s *Session) DeleteDialogueElement(ctx context.Context, n int) error {
	c, err := s.element(ctx, n)
	if err != nil || c == nil {
		return err
	}
	return s.mutate(ctx, func() error { return s.svc.DeleteDialogueElement(ctx, c) })
}

// UpdateIssue writes the edited metadata of the selected issue.
func (s *Session) UpdateIssue(ctx context.Context, edit func(*domain.Issue)) error {
	if s.sel.Issue == nil {
		return ErrNoSelection
	}
	is := *s.sel.Issue
	edit(&is)
	if err := s.mutate(ctx, func() error { return s.svc.UpdateIssue(ctx, &is) }); err != nil {
		return err
	}
	s.sel.Issue = &is
	return nil
}

// mutator adapts the session to the interpreter: every command records an undo
// snapshot and moves the selection to what it created.
type mutator struct{ s *Session }

func (m mutator) AddPage(ctx context.Context, issue *domain.Issue) (*domain.Page, error) {
	var p *domain.Page
	err := m.s.mutateIssue(ctx, issue, func() (err error) {
		p, err = m.s.svc.AddPage(ctx, issue)
		return err
	})
	if err != nil || p == nil {
		return p, err
	}
	return p, m.s.setPage(ctx, p)
}

func (m mutator) AddPanel(ctx context.Context, page *domain.Page) (*domain.Panel, error) {
	var pn *domain.Panel
	err := m.s.mutate(ctx, func() (err error) {
		pn, err = m.s.svc.AddPanel(ctx, page)
		return err
	})
	if err != nil || pn == nil {
		return pn, err
	}
	m.s.sel.Panel = pn
	return pn, nil
}

func (m mutator) AddCharacter(ctx context.Context, panel *domain.Panel, name, dialogue string) (*domain.Character, error) {
	var c *domain.Character
	err := m.s.mutate(ctx, func() (err error) {
		c, err = m.s.svc.AddCharacter(ctx, panel, name, dialogue)
		return err
	})
	return c, err
}
