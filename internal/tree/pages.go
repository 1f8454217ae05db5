/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tree

import (
	"context"
	"log/slog"
	"time"

	"comicscript/internal/domain"
	applog "comicscript/internal/log"
	"comicscript/internal/store"
)

// AddPage appends a page numbered max+1 to issue, together with its first panel.
func (s *Service) AddPage(ctx context.Context, issue *domain.Issue) (*domain.Page, error) {
	if issue == nil {
		s.skip("add_page")
		return nil, nil
	}
	var pg domain.Page
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		n, err := tx.MaxPageNumber(ctx, issue.ID)
		if err != nil {
			return err
		}
		pg = domain.Page{IssueID: issue.ID, Number: n + 1}
		if err := tx.CreatePage(ctx, &pg); err != nil {
			return err
		}
		first := domain.Panel{PageID: pg.ID, Number: 1}
		if err := tx.CreatePanel(ctx, &first); err != nil {
			return err
		}
		return s.touchIssue(ctx, tx, issue.ID, pg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	issue.UpdatedAt = pg.CreatedAt
	applog.WithOperation(s.log, "add_page").Debug("page added", slog.String("issue", issue.ID), slog.Int("number", pg.Number))
	return &pg, nil
}

// DeletePage removes page with its panels and dialogue, then renumbers the remaining pages 1..n.
func (s *Service) DeletePage(ctx context.Context, page *domain.Page) error {
	if page == nil {
		s.skip("delete_page")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeletePage(ctx, page.ID); err != nil {
			return err
		}
		now := tx.Now()
		pages, err := tx.ListPages(ctx, page.IssueID)
		if err != nil {
			return err
		}
		for i, p := range pages {
			if p.Number == i+1 {
				continue
			}
			if err := tx.SetPageNumber(ctx, p.ID, i+1, now); err != nil {
				return err
			}
		}
		return s.touchIssue(ctx, tx, page.IssueID, now)
	})
}

// AddPanel appends a panel numbered max+1 to page.
func (s *Service) AddPanel(ctx context.Context, page *domain.Page) (*domain.Panel, error) {
	if page == nil {
		s.skip("add_panel")
		return nil, nil
	}
	var pn domain.Panel
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		n, err := tx.MaxPanelNumber(ctx, page.ID)
		if err != nil {
			return err
		}
		pn = domain.Panel{PageID: page.ID, Number: n + 1}
		if err := tx.CreatePanel(ctx, &pn); err != nil {
			return err
		}
		return s.touchPage(ctx, tx, page.ID, pn.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	page.UpdatedAt = pn.CreatedAt
	return &pn, nil
}

// DeletePanel removes panel with its dialogue, then renumbers the remaining panels 1..n.
func (s *Service) DeletePanel(ctx context.Context, panel *domain.Panel) error {
	if panel == nil {
		s.skip("delete_panel")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeletePanel(ctx, panel.ID); err != nil {
			return err
		}
		now := tx.Now()
		if err := renumberPanels(ctx, tx, panel.PageID, now); err != nil {
			return err
		}
		return s.touchPage(ctx, tx, panel.PageID, now)
	})
}

func renumberPanels(ctx context.Context, tx *store.Store, pageID string, now time.Time) error {
	panels, err := tx.ListPanels(ctx, pageID)
	if err != nil {
		return err
	}
	for i, p := range panels {
		if p.Number == i+1 {
			continue
		}
		if err := tx.SetPanelNumber(ctx, p.ID, i+1, now); err != nil {
			return err
		}
	}
	return nil
}

// DuplicatePanel appends a copy of panel, its details and every dialogue element
// in the same relative order, to the same page.
func (s *Service) DuplicatePanel(ctx context.Context, panel *domain.Panel) (*domain.Panel, error) {
	if panel == nil {
		s.skip("duplicate_panel")
		return nil, nil
	}
	var dup domain.Panel
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		src, err := tx.GetPanel(ctx, panel.ID)
		if err != nil {
			return err
		}
		chars, err := tx.ListCharacters(ctx, src.ID)
		if err != nil {
			return err
		}
		n, err := tx.MaxPanelNumber(ctx, src.PageID)
		if err != nil {
			return err
		}
		dup = domain.Panel{PageID: src.PageID, Number: n + 1, Details: src.Details}
		if err := tx.CreatePanel(ctx, &dup); err != nil {
			return err
		}
		for i, c := range chars {
			cp := domain.Character{PanelID: dup.ID, Name: c.Name, Dialogue: c.Dialogue, Seq: i + 1}
			if err := tx.CreateCharacter(ctx, &cp); err != nil {
				return err
			}
		}
		return s.touchPage(ctx, tx, src.PageID, dup.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	applog.WithOperation(s.log, "duplicate_panel").Debug("panel duplicated", slog.String("from", panel.ID), slog.String("to", dup.ID))
	return &dup, nil
}

// UpdatePanelDetails replaces the panel description.
func (s *Service) UpdatePanelDetails(ctx context.Context, panel *domain.Panel, details string) error {
	if panel == nil {
		s.skip("update_panel")
		return nil
	}
	var now time.Time
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		now = tx.Now()
		if err := tx.UpdatePanelDetails(ctx, panel.ID, details, now); err != nil {
			return err
		}
		return s.touchPage(ctx, tx, panel.PageID, now)
	})
	if err != nil {
		return err
	}
	panel.Details, panel.UpdatedAt = details, now
	return nil
}
