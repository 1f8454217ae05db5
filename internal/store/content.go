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
const selectPageSQL = `SELECT id, issue_id, number, created_at, updated_at FROM pages`

// language=SQL
const selectPanelSQL = `SELECT id, page_id, number, details, created_at, updated_at FROM panels`

// language=SQL
const selectCharacterSQL = `SELECT id, panel_id, name, dialogue, seq, created_at, updated_at FROM characters`

type scanner interface{ Scan(...any) error }

// ---- pages ----

// CreatePage inserts a page under its issue.
func (s *Store) CreatePage(ctx context.Context, p *domain.Page) error {
	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := s.exec(ctx, `INSERT INTO pages(id, issue_id, number, created_at, updated_at) VALUES(?,?,?,?,?)`,
		p.ID, p.IssueID, p.Number, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func scanPage(sc scanner) (domain.Page, error) {
	var (
		p                domain.Page
		created, updated string
	)
	err := sc.Scan(&p.ID, &p.IssueID, &p.Number, &created, &updated)
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, err
}

// GetPage loads one page by ID.
func (s *Store) GetPage(ctx context.Context, id string) (domain.Page, error) {
	p, err := scanPage(s.queryRow(ctx, selectPageSQL+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// ListPages returns the pages of an issue in ascending page number.
func (s *Store) ListPages(ctx context.Context, issueID string) ([]domain.Page, error) {
	rows, err := s.query(ctx, selectPageSQL+` WHERE issue_id=? ORDER BY number, created_at, id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()
	var out []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MaxPageNumber returns the highest page number of an issue, or 0.
func (s *Store) MaxPageNumber(ctx context.Context, issueID string) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM pages WHERE issue_id=?`, issueID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max page number: %w", err)
	}
	return n, nil
}

// SetPageNumber renumbers a page.
func (s *Store) SetPageNumber(ctx context.Context, id string, n int, t time.Time) error {
	return s.execOne(ctx, `UPDATE pages SET number=?, updated_at=? WHERE id=?`, n, formatTime(t), id)
}

// TouchPage bumps a page's UpdatedAt.
func (s *Store) TouchPage(ctx context.Context, id string, t time.Time) error {
	_, err := s.exec(ctx, `UPDATE pages SET updated_at=? WHERE id=?`, formatTime(t), id)
	return err
}

// DeletePage removes a page with its panels and their dialogue elements, leaf-first.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM characters WHERE panel_id IN (SELECT id FROM panels WHERE page_id=?)`, id); err != nil {
		return fmt.Errorf("delete page characters: %w", err)
	}
	if _, err := s.exec(ctx, `DELETE FROM panels WHERE page_id=?`, id); err != nil {
		return fmt.Errorf("delete page panels: %w", err)
	}
	return s.execOne(ctx, `DELETE FROM pages WHERE id=?`, id)
}

// ---- panels ----

// CreatePanel inserts a panel under its page.
func (s *Store) CreatePanel(ctx context.Context, p *domain.Panel) error {
	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := s.exec(ctx, `INSERT INTO panels(id, page_id, number, details, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		p.ID, p.PageID, p.Number, p.Details, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert panel: %w", err)
	}
	return nil
}

func scanPanel(sc scanner) (domain.Panel, error) {
	var (
		p                domain.Panel
		created, updated string
	)
	err := sc.Scan(&p.ID, &p.PageID, &p.Number, &p.Details, &created, &updated)
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, err
}

// GetPanel loads one panel by ID.
func (s *Store) GetPanel(ctx context.Context, id string) (domain.Panel, error) {
	p, err := scanPanel(s.queryRow(ctx, selectPanelSQL+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("get panel: %w", err)
	}
	return p, nil
}

// ListPanels returns the panels of a page in ascending panel number.
func (s *Store) ListPanels(ctx context.Context, pageID string) ([]domain.Panel, error) {
	rows, err := s.query(ctx, selectPanelSQL+` WHERE page_id=? ORDER BY number, created_at, id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	defer rows.Close()
	var out []domain.Panel
	for rows.Next() {
		p, err := scanPanel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan panel: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MaxPanelNumber returns the highest panel number of a page, or 0.
func (s *Store) MaxPanelNumber(ctx context.Context, pageID string) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM panels WHERE page_id=?`, pageID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max panel number: %w", err)
	}
	return n, nil
}

// SetPanelNumber renumbers a panel.
func (s *Store) SetPanelNumber(ctx context.Context, id string, n int, t time.Time) error {
	return s.execOne(ctx, `UPDATE panels SET number=?, updated_at=? WHERE id=?`, n, formatTime(t), id)
}

// UpdatePanelDetails replaces a panel's description text.
func (s *Store) UpdatePanelDetails(ctx context.Context, id, details string, t time.Time) error {
	return s.execOne(ctx, `UPDATE panels SET details=?, updated_at=? WHERE id=?`, details, formatTime(t), id)
}

// TouchPanel bumps a panel's UpdatedAt.
func (s *Store) TouchPanel(ctx context.Context, id string, t time.Time) error {
	_, err := s.exec(ctx, `UPDATE panels SET updated_at=? WHERE id=?`, formatTime(t), id)
	return err
}

// DeletePanel removes a panel and its dialogue elements.
func (s *Store) DeletePanel(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM characters WHERE panel_id=?`, id); err != nil {
		return fmt.Errorf("delete panel characters: %w", err)
	}
	return s.execOne(ctx, `DELETE FROM panels WHERE id=?`, id)
}

// ---- dialogue elements ----

// CreateCharacter inserts a dialogue element under its panel.
func (s *Store) CreateCharacter(ctx context.Context, c *domain.Character) error {
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := s.exec(ctx, `INSERT INTO characters(id, panel_id, name, dialogue, seq, created_at, updated_at) VALUES(?,?,?,?,?,?,?)`,
		c.ID, c.PanelID, c.Name, c.Dialogue, c.Seq, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

func scanCharacter(sc scanner) (domain.Character, error) {
	var (
		c                domain.Character
		created, updated string
	)
	err := sc.Scan(&c.ID, &c.PanelID, &c.Name, &c.Dialogue, &c.Seq, &created, &updated)
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, err
}

// GetCharacter loads one dialogue element by ID.
func (s *Store) GetCharacter(ctx context.Context, id string) (domain.Character, error) {
	c, err := scanCharacter(s.queryRow(ctx, selectCharacterSQL+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("get character: %w", err)
	}
	return c, nil
}

// ListCharacters returns the dialogue elements of a panel in display order.
func (s *Store) ListCharacters(ctx context.Context, panelID string) ([]domain.Character, error) {
	rows, err := s.query(ctx, selectCharacterSQL+` WHERE panel_id=? ORDER BY seq, created_at, id`, panelID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()
	var out []domain.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// The SQL order is textual on created_at; settle ties on the parsed value.
	domain.SortCharacters(out)
	return out, nil
}

// MaxCharacterSeq returns the highest ordering key in a panel, or 0.
func (s *Store) MaxCharacterSeq(ctx context.Context, panelID string) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM characters WHERE panel_id=?`, panelID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max character seq: %w", err)
	}
	return n, nil
}

// UpdateCharacter writes name and dialogue text.
func (s *Store) UpdateCharacter(ctx context.Context, c domain.Character) error {
	return s.execOne(ctx, `UPDATE characters SET name=?, dialogue=?, updated_at=? WHERE id=?`,
		c.Name, c.Dialogue, formatTime(c.UpdatedAt), c.ID)
}

// SetCharacterSeq rewrites a dialogue element's ordering key.
func (s *Store) SetCharacterSeq(ctx context.Context, id string, seq int, t time.Time) error {
	return s.execOne(ctx, `UPDATE characters SET seq=?, updated_at=? WHERE id=?`, seq, formatTime(t), id)
}

// DeleteCharacter removes one dialogue element.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM characters WHERE id=?`, id)
}
