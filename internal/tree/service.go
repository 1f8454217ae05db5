/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tree implements the structural edits of a comic script: adding, deleting,
// duplicating and reordering nodes while keeping page and panel numbers contiguous.
//
// Every operation runs in one store transaction. A nil parent or target is a
// precondition miss: the call does nothing and returns zero values with a nil error.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comicscript/internal/domain"
	applog "comicscript/internal/log"
	"comicscript/internal/store"
)

// Service applies tree mutations through a store.
type Service struct {
	st  *store.Store
	log *slog.Logger
}

// New returns a Service backed by st.
func New(st *store.Store) *Service {
	return &Service{st: st, log: applog.WithComponent("tree")}
}

func (s *Service) skip(op string) {
	applog.WithOperation(s.log, op).Debug("missing context; no-op")
}

// ---- series / issues ----

// AddSeries creates a series from the given template.
func (s *Service) AddSeries(ctx context.Context, tmpl domain.Series) (*domain.Series, error) {
	se := tmpl
	se.ID, se.CreatedAt, se.UpdatedAt, se.HasCover = "", time.Time{}, time.Time{}, false
	if err := s.st.CreateSeries(ctx, &se); err != nil {
		return nil, err
	}
	applog.WithOperation(s.log, "add_series").Debug("series added", "id", se.ID)
	return &se, nil
}

// AddIssue creates an issue in series. A zero Number becomes max(existing)+1.
func (s *Service) AddIssue(ctx context.Context, series *domain.Series, tmpl domain.Issue) (*domain.Issue, error) {
	if series == nil {
		s.skip("add_issue")
		return nil, nil
	}
	is := tmpl
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
		return s.touchSeries(ctx, tx, series.ID, is.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &is, nil
}

// DeleteSeries removes a series and all of its issues, pages, panels and dialogue elements.
func (s *Service) DeleteSeries(ctx context.Context, series *domain.Series) error {
	if series == nil {
		s.skip("delete_series")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		return tx.DeleteSeries(ctx, series.ID)
	})
}

// DeleteIssue removes an issue and everything below it. Issue numbers are not renumbered.
func (s *Service) DeleteIssue(ctx context.Context, issue *domain.Issue) error {
	if issue == nil {
		s.skip("delete_issue")
		return nil
	}
	return s.st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteIssue(ctx, issue.ID); err != nil {
			return err
		}
		return s.touchSeries(ctx, tx, issue.SeriesID, tx.Now())
	})
}

// UpdateSeries writes title, synopsis and category.
func (s *Service) UpdateSeries(ctx context.Context, series *domain.Series) error {
	if series == nil {
		s.skip("update_series")
		return nil
	}
	upd := *series
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		upd.UpdatedAt = tx.Now()
		return tx.UpdateSeries(ctx, upd)
	})
	if err != nil {
		return err
	}
	*series = upd
	return nil
}

// UpdateIssue writes the editable issue fields and marks the series updated.
func (s *Service) UpdateIssue(ctx context.Context, issue *domain.Issue) error {
	if issue == nil {
		s.skip("update_issue")
		return nil
	}
	upd := *issue
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		upd.UpdatedAt = tx.Now()
		if err := tx.UpdateIssue(ctx, upd); err != nil {
			return err
		}
		return s.touchSeries(ctx, tx, upd.SeriesID, upd.UpdatedAt)
	})
	if err != nil {
		return err
	}
	*issue = upd
	return nil
}

// SetSeriesCover attaches an opaque cover image; nil clears it.
func (s *Service) SetSeriesCover(ctx context.Context, series *domain.Series, img []byte) error {
	if series == nil {
		s.skip("set_series_cover")
		return nil
	}
	var now time.Time
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		now = tx.Now()
		return tx.SetSeriesCover(ctx, series.ID, img, now)
	})
	if err != nil {
		return err
	}
	series.UpdatedAt, series.HasCover = now, len(img) > 0
	return nil
}

// SetIssueCover attaches an opaque cover image and its style label; a nil img clears the image.
func (s *Service) SetIssueCover(ctx context.Context, issue *domain.Issue, img []byte, style string) error {
	if issue == nil {
		s.skip("set_issue_cover")
		return nil
	}
	upd := *issue
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		now := tx.Now()
		if err := tx.SetIssueCover(ctx, upd.ID, img, now); err != nil {
			return err
		}
		upd.CoverStyle, upd.UpdatedAt = style, now
		if err := tx.UpdateIssue(ctx, upd); err != nil {
			return err
		}
		return s.touchSeries(ctx, tx, upd.SeriesID, now)
	})
	if err != nil {
		return err
	}
	upd.HasCover = len(img) > 0
	*issue = upd
	return nil
}

// ---- ancestor propagation ----
// A missing ancestor is skipped. Statement failures are returned: on Postgres they
// abort the surrounding transaction, so the mutation cannot commit anyway.

func (s *Service) touchSeries(ctx context.Context, tx *store.Store, seriesID string, t time.Time) error {
	if err := tx.TouchSeries(ctx, seriesID, t); err != nil {
		return fmt.Errorf("touch series: %w", err)
	}
	return nil
}

func (s *Service) touchIssue(ctx context.Context, tx *store.Store, issueID string, t time.Time) error {
	if err := tx.TouchIssue(ctx, issueID, t); err != nil {
		return fmt.Errorf("touch issue: %w", err)
	}
	is, err := tx.GetIssue(ctx, issueID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug("touch skipped; issue missing", "id", issueID)
		return nil
	}
	if err != nil {
		return err
	}
	return s.touchSeries(ctx, tx, is.SeriesID, t)
}

func (s *Service) touchPage(ctx context.Context, tx *store.Store, pageID string, t time.Time) error {
	if err := tx.TouchPage(ctx, pageID, t); err != nil {
		return fmt.Errorf("touch page: %w", err)
	}
	p, err := tx.GetPage(ctx, pageID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug("touch skipped; page missing", "id", pageID)
		return nil
	}
	if err != nil {
		return err
	}
	return s.touchIssue(ctx, tx, p.IssueID, t)
}

func (s *Service) touchPanel(ctx context.Context, tx *store.Store, panelID string, t time.Time) error {
	if err := tx.TouchPanel(ctx, panelID, t); err != nil {
		return fmt.Errorf("touch panel: %w", err)
	}
	p, err := tx.GetPanel(ctx, panelID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug("touch skipped; panel missing", "id", panelID)
		return nil
	}
	if err != nil {
		return err
	}
	return s.touchPage(ctx, tx, p.PageID, t)
}
