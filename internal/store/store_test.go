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
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"comicscript/internal/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seed creates series/issue/page/panel with two dialogue elements.
func seed(t *testing.T, s *Store) (domain.Series, domain.Issue, domain.Page, domain.Panel) {
	t.Helper()
	ctx := context.Background()
	se := domain.Series{Title: "Night Shift"}
	if err := s.CreateSeries(ctx, &se); err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	is := domain.Issue{SeriesID: se.ID, Title: "Pilot", Number: 1}
	if err := s.CreateIssue(ctx, &is); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	pg := domain.Page{IssueID: is.ID, Number: 1}
	if err := s.CreatePage(ctx, &pg); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	pn := domain.Panel{PageID: pg.ID, Number: 1, Details: "A dark alley."}
	if err := s.CreatePanel(ctx, &pn); err != nil {
		t.Fatalf("CreatePanel: %v", err)
	}
	for i, name := range []string{"BOB", "CAPTION"} {
		c := domain.Character{PanelID: pn.ID, Name: name, Dialogue: "line", Seq: i + 1}
		if err := s.CreateCharacter(ctx, &c); err != nil {
			t.Fatalf("CreateCharacter: %v", err)
		}
	}
	return se, is, pg, pn
}

func TestOpenCreatesSchemaAtCurrentVersion(t *testing.T) {
	s := openTemp(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("schema = %d, want %d", v, schemaVersion)
	}
	var n int
	if err := s.queryRow(context.Background(), `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_characters_panel'`).Scan(&n); err != nil {
		t.Fatalf("probe index: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected migration index to exist")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "re.db")
	ctx := context.Background()
	s, err := Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, is, _, _ := seed(t, s)
	_ = s.Close()

	s2, err := Open(ctx, Options{Driver: "SQLite", Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	tree, err := s2.LoadIssueTree(ctx, is.ID)
	if err != nil {
		t.Fatalf("LoadIssueTree: %v", err)
	}
	if len(tree.Pages) != 1 || len(tree.Pages[0].Panels) != 1 || len(tree.Pages[0].Panels[0].Characters) != 2 {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
	if tree.Series == nil || tree.Series.Title != "Night Shift" {
		t.Fatalf("series not attached: %+v", tree.Series)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mysql", Path: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := Open(context.Background(), Options{Driver: "postgres"}); err == nil {
		t.Fatalf("expected error for missing DSN")
	}
}

func TestDeleteSeriesCascadesLeafFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	se, _, _, _ := seed(t, s)
	if err := s.DeleteSeries(ctx, se.ID); err != nil {
		t.Fatalf("DeleteSeries: %v", err)
	}
	c, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if c != (Counts{}) {
		t.Fatalf("expected empty store, got %+v", c)
	}
	if err := s.DeleteSeries(ctx, se.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDeletePageRemovesPanelsAndCharacters(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, is, pg, pn := seed(t, s)
	if err := s.DeletePage(ctx, pg.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if panels, _ := s.ListPanels(ctx, pg.ID); len(panels) != 0 {
		t.Fatalf("panels left: %d", len(panels))
	}
	if chars, _ := s.ListCharacters(ctx, pn.ID); len(chars) != 0 {
		t.Fatalf("characters left: %d", len(chars))
	}
	if n, err := s.OrphanCount(ctx); err != nil || n != 0 {
		t.Fatalf("orphans = %d, err = %v", n, err)
	}
	if _, err := s.GetIssue(ctx, is.ID); err != nil {
		t.Fatalf("issue should survive: %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx *Store) error {
		se := domain.Series{Title: "temp"}
		if err := tx.CreateSeries(ctx, &se); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v", err)
	}
	list, err := s.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rollback did not discard series: %+v", list)
	}
}

func TestListCharactersOrdersBySeq(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, _, _, pn := seed(t, s)
	chars, _ := s.ListCharacters(ctx, pn.ID)
	// swap order via seq
	if err := s.SetCharacterSeq(ctx, chars[0].ID, 5, time.Now()); err != nil {
		t.Fatalf("SetCharacterSeq: %v", err)
	}
	got, _ := s.ListCharacters(ctx, pn.ID)
	if got[0].Name != "CAPTION" || got[1].Name != "BOB" {
		t.Fatalf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if m, _ := s.MaxCharacterSeq(ctx, pn.ID); m != 5 {
		t.Fatalf("max seq = %d", m)
	}
}

func TestTimestampsRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.UTC)
	s.SetClock(func() time.Time { return fixed })
	se := domain.Series{Title: "Clocked"}
	if err := s.CreateSeries(ctx, &se); err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	got, err := s.GetSeries(ctx, se.ID)
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if !got.CreatedAt.Equal(fixed) || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, fixed)
	}
}

func TestCoverStoresThumbnail(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, is, _, _ := seed(t, s)

	img := image.NewRGBA(image.Rect(0, 0, 600, 300))
	for x := 0; x < 600; x++ {
		img.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIssueCover(ctx, is.ID, buf.Bytes(), time.Now()); err != nil {
		t.Fatalf("SetIssueCover: %v", err)
	}
	cv, err := s.IssueCover(ctx, is.ID)
	if err != nil {
		t.Fatalf("IssueCover: %v", err)
	}
	if !bytes.Equal(cv.Image, buf.Bytes()) {
		t.Fatalf("cover blob changed")
	}
	th, err := png.Decode(bytes.NewReader(cv.Thumb))
	if err != nil {
		t.Fatalf("decode thumb: %v", err)
	}
	if th.Bounds().Dx() != ThumbMaxDim || th.Bounds().Dy() != ThumbMaxDim/2 {
		t.Fatalf("thumb size = %v", th.Bounds())
	}
	got, _ := s.GetIssue(ctx, is.ID)
	if !got.HasCover {
		t.Fatalf("HasCover should be set")
	}

	// opaque blobs are kept even when they cannot be decoded
	if err := s.SetIssueCover(ctx, is.ID, []byte("not an image"), time.Now()); err != nil {
		t.Fatalf("SetIssueCover opaque: %v", err)
	}
	cv, _ = s.IssueCover(ctx, is.ID)
	if string(cv.Image) != "not an image" || len(cv.Thumb) != 0 {
		t.Fatalf("unexpected opaque cover: %q thumb=%d", cv.Image, len(cv.Thumb))
	}

	if err := s.SetIssueCover(ctx, is.ID, nil, time.Now()); err != nil {
		t.Fatalf("clear cover: %v", err)
	}
	got, _ = s.GetIssue(ctx, is.ID)
	if got.HasCover {
		t.Fatalf("HasCover should be cleared")
	}
}

func TestRebindForPostgres(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	got := s.rebind(`UPDATE pages SET number=?, updated_at=? WHERE id=?`)
	want := `UPDATE pages SET number=$1, updated_at=$2 WHERE id=$3`
	if got != want {
		t.Fatalf("rebind = %q", got)
	}
	if s.ddl("cover BLOB,") != "cover BYTEA," {
		t.Fatalf("ddl not adapted")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	se, is, _, _ := seed(t, s)
	ts := time.Date(2025, 2, 2, 2, 2, 2, 0, time.UTC)
	undo := []HistoryEntry{{TS: ts, Blob: []byte("u1")}, {TS: ts.Add(time.Second), Blob: []byte("u2")}}
	redo := []HistoryEntry{{TS: ts, Blob: []byte("r1")}}
	if err := s.SaveHistory(ctx, is.ID, undo, redo); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	gu, gr, err := s.LoadHistory(ctx, is.ID)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(gu) != 2 || string(gu[1].Blob) != "u2" || !gu[0].TS.Equal(ts) || len(gr) != 1 {
		t.Fatalf("unexpected history: %+v / %+v", gu, gr)
	}
	// saving again replaces
	if err := s.SaveHistory(ctx, is.ID, undo[:1], nil); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	gu, gr, _ = s.LoadHistory(ctx, is.ID)
	if len(gu) != 1 || len(gr) != 0 {
		t.Fatalf("expected replaced history, got %d/%d", len(gu), len(gr))
	}
	if err := s.DeleteSeries(ctx, se.ID); err != nil {
		t.Fatalf("DeleteSeries: %v", err)
	}
	gu, _, _ = s.LoadHistory(ctx, is.ID)
	if len(gu) != 0 {
		t.Fatalf("history should be removed with its issue")
	}
}

type rowsResult struct {
	n   int64
	err error
}

func (r rowsResult) LastInsertId() (int64, error) { return 0, nil }
func (r rowsResult) RowsAffected() (int64, error) { return r.n, r.err }

type execOnly struct {
	querier
	res sql.Result
}

func (e execOnly) ExecContext(context.Context, string, ...any) (sql.Result, error) { return e.res, nil }

func TestExecOneReportsAffectedRows(t *testing.T) {
	ctx := context.Background()
	errDriver := errors.New("rows affected unsupported")
	s := &Store{q: execOnly{res: rowsResult{err: errDriver}}}
	if err := s.execOne(ctx, `DELETE FROM pages WHERE id=?`, "x"); !errors.Is(err, errDriver) {
		t.Fatalf("execOne error = %v, want %v", err, errDriver)
	}
	s = &Store{q: execOnly{res: rowsResult{n: 0}}}
	if err := s.execOne(ctx, `DELETE FROM pages WHERE id=?`, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("execOne error = %v, want ErrNotFound", err)
	}
	s = &Store{q: execOnly{res: rowsResult{n: 1}}}
	if err := s.execOne(ctx, `DELETE FROM pages WHERE id=?`, "x"); err != nil {
		t.Fatalf("execOne: %v", err)
	}
}
