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
	"time"

	"comicscript/internal/domain"
)

// language=SQL
const selectSeriesSQL = `SELECT id, title, synopsis, category,
	CASE WHEN cover IS NULL THEN 0 ELSE 1 END, created_at, updated_at FROM series`

// language=SQL
const selectIssueSQL = `SELECT id, series_id, title, number, synopsis, writer, cover_style,
	CASE WHEN cover IS NULL THEN 0 ELSE 1 END, created_at, updated_at FROM issues`

// stamp fills in missing identity and timestamps for a new row.
func (s *Store) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = domain.NewID()
	}
	now := s.Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

// CreateSeries inserts a series, assigning an ID and timestamps when unset.
func (s *Store) CreateSeries(ctx context.Context, se *domain.Series) error {
	s.stamp(&se.ID, &se.CreatedAt, &se.UpdatedAt)
	_, err := s.exec(ctx, `INSERT INTO series(id, title, synopsis, category, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		se.ID, se.Title, se.Synopsis, se.Category, formatTime(se.CreatedAt), formatTime(se.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	return nil
}

func scanSeries(sc interface{ Scan(...any) error }) (domain.Series, error) {
	var (
		se               domain.Series
		hasCover         int
		created, updated string
	)
	if err := sc.Scan(&se.ID, &se.Title, &se.Synopsis, &se.Category, &hasCover, &created, &updated); err != nil {
		return se, err
	}
	se.HasCover = hasCover != 0
	se.CreatedAt, se.UpdatedAt = parseTime(created), parseTime(updated)
	return se, nil
}

// GetSeries loads one series by ID.
func (s *Store) GetSeries(ctx context.Context, id string) (domain.Series, error) {
	se, err := scanSeries(s.queryRow(ctx, selectSeriesSQL+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return se, ErrNotFound
	}
	if err != nil {
		return se, fmt.Errorf("get series: %w", err)
	}
	return se, nil
}

// ListSeries returns all series ordered by title, then creation.
func (s *Store) ListSeries(ctx context.Context) ([]domain.Series, error) {
	rows, err := s.query(ctx, selectSeriesSQL+` ORDER BY title, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()
	var out []domain.Series
	for rows.Next() {
		se, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

// UpdateSeries writes the editable series fields.
func (s *Store) UpdateSeries(ctx context.Context, se domain.Series) error {
	return s.execOne(ctx, `UPDATE series SET title=?, synopsis=?, category=?, updated_at=? WHERE id=?`,
		se.Title, se.Synopsis, se.Category, formatTime(se.UpdatedAt), se.ID)
}

// DeleteSeries removes a series and everything below it, leaf-first.
func (s *Store) DeleteSeries(ctx context.Context, id string) error {
	stmts := []string{
		`DELETE FROM history WHERE issue_id IN (SELECT id FROM issues WHERE series_id=?)`,
		`DELETE FROM characters WHERE panel_id IN (SELECT p.id FROM panels p JOIN pages g ON p.page_id=g.id JOIN issues i ON g.issue_id=i.id WHERE i.series_id=?)`,
		`DELETE FROM panels WHERE page_id IN (SELECT g.id FROM pages g JOIN issues i ON g.issue_id=i.id WHERE i.series_id=?)`,
		`DELETE FROM pages WHERE issue_id IN (SELECT id FROM issues WHERE series_id=?)`,
		`DELETE FROM issues WHERE series_id=?`,
	}
	for _, q := range stmts {
		if _, err := s.exec(ctx, q, id); err != nil {
			return fmt.Errorf("delete series children: %w", err)
		}
	}
	return s.execOne(ctx, `DELETE FROM series WHERE id=?`, id)
}

// CreateIssue inserts an issue under its series.
func (s *Store) CreateIssue(ctx context.Context, is *domain.Issue) error {
	s.stamp(&is.ID, &is.CreatedAt, &is.UpdatedAt)
	_, err := s.exec(ctx, `INSERT INTO issues(id, series_id, title, number, synopsis, writer, cover_style, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		is.ID, is.SeriesID, is.Title, is.Number, is.Synopsis, is.Writer, is.CoverStyle, formatTime(is.CreatedAt), formatTime(is.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func scanIssue(sc interface{ Scan(...any) error }) (domain.Issue, error) {
	var (
		is               domain.Issue
		hasCover         int
		created, updated string
	)
	if err := sc.Scan(&is.ID, &is.SeriesID, &is.Title, &is.Number, &is.Synopsis, &is.Writer, &is.CoverStyle, &hasCover, &created, &updated); err != nil {
		return is, err
	}
	is.HasCover = hasCover != 0
	is.CreatedAt, is.UpdatedAt = parseTime(created), parseTime(updated)
	return is, nil
}

// GetIssue loads one issue by ID.
func (s *Store) GetIssue(ctx context.Context, id string) (domain.Issue, error) {
	is, err := scanIssue(s.queryRow(ctx, selectIssueSQL+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return is, ErrNotFound
	}
	if err != nil {
		return is, fmt.Errorf("get issue: %w", err)
	}
	return is, nil
}

// ListIssues returns the issues of a series ordered by issue number.
func (s *Store) ListIssues(ctx context.Context, seriesID string) ([]domain.Issue, error) {
	rows, err := s.query(ctx, selectIssueSQL+` WHERE series_id=? ORDER BY number, created_at, id`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()
	var out []domain.Issue
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

// MaxIssueNumber returns the highest issue number in a series, or 0.
func (s *Store) MaxIssueNumber(ctx context.Context, seriesID string) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM issues WHERE series_id=?`, seriesID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max issue number: %w", err)
	}
	return n, nil
}

// UpdateIssue writes the editable issue fields.
func (s *Store) UpdateIssue(ctx context.Context, is domain.Issue) error {
	return s.execOne(ctx, `UPDATE issues SET title=?, number=?, synopsis=?, writer=?, cover_style=?, updated_at=? WHERE id=?`,
		is.Title, is.Number, is.Synopsis, is.Writer, is.CoverStyle, formatTime(is.UpdatedAt), is.ID)
}

// DeleteIssue removes an issue and its pages, panels and dialogue elements, leaf-first.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	if err := s.DeleteIssueContent(ctx, id); err != nil {
		return err
	}
	if _, err := s.exec(ctx, `DELETE FROM history WHERE issue_id=?`, id); err != nil {
		return fmt.Errorf("delete issue history: %w", err)
	}
	return s.execOne(ctx, `DELETE FROM issues WHERE id=?`, id)
}

// DeleteIssueContent removes every page below an issue but keeps the issue row.
func (s *Store) DeleteIssueContent(ctx context.Context, issueID string) error {
	stmts := []string{
		`DELETE FROM characters WHERE panel_id IN (SELECT p.id FROM panels p JOIN pages g ON p.page_id=g.id WHERE g.issue_id=?)`,
		`DELETE FROM panels WHERE page_id IN (SELECT id FROM pages WHERE issue_id=?)`,
		`DELETE FROM pages WHERE issue_id=?`,
	}
	for _, q := range stmts {
		if _, err := s.exec(ctx, q, issueID); err != nil {
			return fmt.Errorf("delete issue content: %w", err)
		}
	}
	return nil
}

// TouchSeries bumps a series' UpdatedAt.
func (s *Store) TouchSeries(ctx context.Context, id string, t time.Time) error {
	_, err := s.exec(ctx, `UPDATE series SET updated_at=? WHERE id=?`, formatTime(t), id)
	return err
}

// TouchIssue bumps an issue's UpdatedAt.
func (s *Store) TouchIssue(ctx context.Context, id string, t time.Time) error {
	_, err := s.exec(ctx, `UPDATE issues SET updated_at=? WHERE id=?`, formatTime(t), id)
	return err
}
