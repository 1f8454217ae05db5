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
	"errors"
	"fmt"

	"comicscript/internal/domain"
)

// LoadIssueTree reads an issue with its series and all descendants in canonical order.
func (s *Store) LoadIssueTree(ctx context.Context, issueID string) (*domain.IssueTree, error) {
	is, err := s.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	t := &domain.IssueTree{Issue: is, Pages: []domain.PageTree{}}
	se, err := s.GetSeries(ctx, is.SeriesID)
	switch {
	case err == nil:
		t.Series = &se
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	pages, err := s.ListPages(ctx, issueID)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		pt := domain.PageTree{Page: p, Panels: []domain.PanelTree{}}
		panels, err := s.ListPanels(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, pn := range panels {
			chars, err := s.ListCharacters(ctx, pn.ID)
			if err != nil {
				return nil, err
			}
			if chars == nil {
				chars = []domain.Character{}
			}
			pt.Panels = append(pt.Panels, domain.PanelTree{Panel: pn, Characters: chars})
		}
		t.Pages = append(t.Pages, pt)
	}
	return t, nil
}

// Counts is a row count per entity table.
type Counts struct {
	Series     int
	Issues     int
	Pages      int
	Panels     int
	Characters int
}

// Count returns the number of rows in every entity table.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"series", &c.Series},
		{"issues", &c.Issues},
		{"pages", &c.Pages},
		{"panels", &c.Panels},
		{"characters", &c.Characters},
	}
	for _, tgt := range targets {
		if err := s.queryRow(ctx, `SELECT COUNT(*) FROM `+tgt.table).Scan(tgt.dst); err != nil {
			return c, fmt.Errorf("count %s: %w", tgt.table, err)
		}
	}
	return c, nil
}

// OrphanCount returns rows whose parent row no longer exists. It is zero in a consistent store.
func (s *Store) OrphanCount(ctx context.Context) (int, error) {
	var n int
	q := `SELECT
		(SELECT COUNT(*) FROM issues WHERE series_id NOT IN (SELECT id FROM series)) +
		(SELECT COUNT(*) FROM pages WHERE issue_id NOT IN (SELECT id FROM issues)) +
		(SELECT COUNT(*) FROM panels WHERE page_id NOT IN (SELECT id FROM pages)) +
		(SELECT COUNT(*) FROM characters WHERE panel_id NOT IN (SELECT id FROM panels))`
	if err := s.queryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("orphan count: %w", err)
	}
	return n, nil
}
