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

// ImportIssue creates a new issue in series from a decoded or parsed tree. All IDs are
// fresh; pages, panels and elements are renumbered 1..n in their given order.
// A zero issue number becomes max(existing)+1.
func (s *Service) ImportIssue(ctx context.Context, series *domain.Series, src *domain.IssueTree) (*domain.Issue, error) {
	if series == nil || src == nil {
		s.skip("import_issue")
		return nil, nil
	}
	is := src.Issue
	is.ID, is.SeriesID, is.CreatedAt, is.UpdatedAt, is.HasCover = "", series.ID, time.Time{}, time.Time{}, false
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		if is.Number <= 0 {
			n, err := tx.MaxIssueNumber(ctx, series.ID)
			if err != nil {
				return err
			}
			is.Number = n + 1
		}
		if err := tx.CreateIssue(ctx, &is); err != nil {
			return err
		}
		if err := writeContent(ctx, tx, is.ID, src.Pages, false); err != nil {
			return err
		}
		return s.touchSeries(ctx, tx, series.ID, is.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	applog.WithOperation(s.log, "import_issue").Info("issue imported",
		slog.String("issue", is.ID), slog.Int("pages", len(src.Pages)))
	return &is, nil
}

// RestoreIssue replaces the issue's metadata and content with snap, keeping the IDs and
// timestamps recorded in the snapshot. The issue must still exist.
func (s *Service) RestoreIssue(ctx context.Context, snap *domain.IssueTree) error {
	if snap == nil {
		s.skip("restore_issue")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		cur, err := tx.GetIssue(ctx, snap.Issue.ID)
		if err != nil {
			return err
		}
		is := snap.Issue
		is.SeriesID = cur.SeriesID
		is.UpdatedAt = tx.Now()
		if err := tx.UpdateIssue(ctx, is); err != nil {
			return err
		}
		if err := tx.DeleteIssueContent(ctx, is.ID); err != nil {
			return err
		}
		if err := writeContent(ctx, tx, is.ID, snap.Pages, true); err != nil {
			return err
		}
		return s.touchSeries(ctx, tx, is.SeriesID, is.UpdatedAt)
	})
}

// writeContent inserts pages in order. keepIDs preserves IDs and timestamps from the source.
func writeContent(ctx context.Context, tx *store.Store, issueID string, pages []domain.PageTree, keepIDs bool) error {
	for pi, pt := range pages {
		pg := domain.Page{IssueID: issueID, Number: pi + 1}
		if keepIDs {
			pg.ID, pg.CreatedAt, pg.UpdatedAt = pt.Page.ID, pt.Page.CreatedAt, pt.Page.UpdatedAt
		}
		if err := tx.CreatePage(ctx, &pg); err != nil {
			return err
		}
		for ni, pnt := range pt.Panels {
			pn := domain.Panel{PageID: pg.ID, Number: ni + 1, Details: pnt.Panel.Details}
			if keepIDs {
				pn.ID, pn.CreatedAt, pn.UpdatedAt = pnt.Panel.ID, pnt.Panel.CreatedAt, pnt.Panel.UpdatedAt
			}
			if err := tx.CreatePanel(ctx, &pn); err != nil {
				return err
			}
			for ci, c := range pnt.Characters {
				ch := domain.Character{PanelID: pn.ID, Name: c.Name, Dialogue: c.Dialogue, Seq: ci + 1}
				if keepIDs {
					ch.ID, ch.CreatedAt, ch.UpdatedAt = c.ID, c.CreatedAt, c.UpdatedAt
				}
				if err := tx.CreateCharacter(ctx, &ch); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ---- reads ----

// Series lists every series.
func (s *Service) Series(ctx context.Context) ([]domain.Series, error) {
	return s.st.ListSeries(ctx)
}

// Issues lists the issues of a series by issue number.
func (s *Service) Issues(ctx context.Context, seriesID string) ([]domain.Issue, error) {
	return s.st.ListIssues(ctx, seriesID)
}

// IssueTree loads the full ordered tree of an issue.
func (s *Service) IssueTree(ctx context.Context, issueID string) (*domain.IssueTree, error) {
	return s.st.LoadIssueTree(ctx, issueID)
}
