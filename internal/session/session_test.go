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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicscript/internal/domain"
	"comicscript/internal/store"
	"comicscript/internal/undo"
)

type fixture struct {
	ctx  context.Context
	path string
	st   *store.Store
	s    *Session
}

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Options{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return st
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	st := openStore(t, path)
	s := New(st, undo.Config{MaxPerIssue: 20})
	_, err := s.AddSeries(ctx, domain.Series{Title: "Harbor Lights"})
	require.NoError(t, err)
	_, err = s.AddIssue(ctx, domain.Issue{Title: "Arrival"})
	require.NoError(t, err)
	return &fixture{ctx: ctx, path: path, st: st, s: s}
}

func (f *fixture) tree(t *testing.T) *domain.IssueTree {
	t.Helper()
	tr, err := f.st.LoadIssueTree(f.ctx, f.s.Selection().Issue.ID)
	require.NoError(t, err)
	return tr
}

func TestTypeInlineCommands(t *testing.T) {
	f := newFixture(t)

	res, err := f.s.Type(f.ctx, "page")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "", res.Text)
	tr := f.tree(t)
	require.Len(t, tr.Pages, 1)
	assert.Equal(t, 1, tr.Pages[0].Page.Number)
	sel := f.s.Selection()
	require.NotNil(t, sel.Page)
	require.NotNil(t, sel.Panel)
	assert.Equal(t, tr.Pages[0].Page.ID, sel.Page.ID)

	_, err = f.s.Type(f.ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, f.tree(t).PageNumbers())
	assert.Equal(t, 2, f.s.Selection().Page.Number)

	res, err = f.s.Type(f.ctx, "Some description\npanel")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "Some description", res.Text)
	page := f.tree(t).Pages[1]
	assert.Equal(t, []int{1, 2}, page.PanelNumbers())
	assert.Equal(t, page.Panels[1].Panel.ID, f.s.Selection().Panel.ID)

	_, err = f.s.Type(f.ctx, "BOB:")
	require.NoError(t, err)
	panel := f.tree(t).Pages[1].Panels[1]
	require.Len(t, panel.Characters, 1)
	assert.Equal(t, "BOB", panel.Characters[0].Name)
	assert.Equal(t, "", panel.Characters[0].Dialogue)

	before := f.tree(t)
	res, err = f.s.Type(f.ctx, "just dialogue")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "just dialogue\n", res.Text)
	assert.Equal(t, before, f.tree(t))
}

func TestTypeWithoutContextIsLiteral(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, filepath.Join(t.TempDir(), "empty.db"))
	s := New(st, undo.Config{})
	for _, line := range []string{"page", "panel", "BOB:"} {
		res, err := s.Type(ctx, line)
		require.NoError(t, err)
		assert.False(t, res.Applied, line)
		assert.Equal(t, line+"\n", res.Text)
	}
	counts, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, counts)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	first := f.s.Selection().Panel
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Number)

	_, err = f.s.AddPanel(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, f.tree(t).Pages[0].PanelNumbers())

	require.NoError(t, f.s.SelectPanel(f.ctx, 1))
	require.NoError(t, f.s.DeletePanel(f.ctx))
	page := f.tree(t).Pages[0]
	assert.Equal(t, []int{1}, page.PanelNumbers())
	sel := f.s.Selection()
	require.NotNil(t, sel.Panel)
	assert.Equal(t, page.Panels[0].Panel.ID, sel.Panel.ID)
	assert.Equal(t, 1, sel.Panel.Number)

	res, err := f.s.Type(f.ctx, "NARRATOR:")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	cs := f.tree(t).Pages[0].Panels[0].Characters
	require.Len(t, cs, 1)
	assert.Equal(t, "NARRATOR", cs[0].Name)
	assert.Equal(t, "", cs[0].Dialogue)
}

func TestDeletePageSelectsNeighbour(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.s.AddPage(f.ctx)
		require.NoError(t, err)
	}
	require.NoError(t, f.s.SelectPage(f.ctx, 2))
	deleted := f.s.Selection().Page.ID
	require.NoError(t, f.s.DeletePage(f.ctx))
	sel := f.s.Selection()
	require.NotNil(t, sel.Page)
	assert.NotEqual(t, deleted, sel.Page.ID)
	assert.Equal(t, 2, sel.Page.Number)
	require.NotNil(t, sel.Panel)

	require.NoError(t, f.s.DeletePage(f.ctx))
	assert.Equal(t, 1, f.s.Selection().Page.Number)
	require.NoError(t, f.s.DeletePage(f.ctx))
	sel = f.s.Selection()
	assert.Nil(t, sel.Page)
	assert.Nil(t, sel.Panel)
	assert.NotNil(t, sel.Issue)

	assert.NoError(t, f.s.DeletePage(f.ctx), "deleting with nothing selected is a no-op")
}

func TestDeleteLastPanelSelectsPrevious(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	_, err = f.s.AddPanel(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.s.Selection().Panel.Number)
	require.NoError(t, f.s.DeletePanel(f.ctx))
	assert.Equal(t, 1, f.s.Selection().Panel.Number)
}

func TestElementEditsByPosition(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	for _, n := range []string{"A", "B", "C"} {
		_, err := f.s.AddCharacter(f.ctx, n, "line "+n)
		require.NoError(t, err)
	}
	require.NoError(t, f.s.MoveDialogueElement(f.ctx, 2, 0))
	require.NoError(t, f.s.UpdateDialogue(f.ctx, 1, "changed"))
	require.NoError(t, f.s.RenameCharacter(f.ctx, 2, "ALICE"))
	require.NoError(t, f.s.DeleteDialogueElement(f.ctx, 3))
	require.NoError(t, f.s.UpdateDialogue(f.ctx, 9, "ignored"))

	cs, err := f.s.Elements(f.ctx)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "C", cs[0].Name)
	assert.Equal(t, "changed", cs[0].Dialogue)
	assert.Equal(t, "ALICE", cs[1].Name)
}

func TestDuplicatePanelSelectsCopy(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.s.UpdatePanelDetails(f.ctx, "Wide shot."))
	_, err = f.s.AddCharacter(f.ctx, "BOB", "Hi.")
	require.NoError(t, err)
	cp, err := f.s.DuplicatePanel(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, cp.ID, f.s.Selection().Panel.ID)
	assert.Equal(t, 2, cp.Number)
	cs, err := f.s.Elements(f.ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Hi.", cs[0].Dialogue)
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	_, err = f.s.AddCharacter(f.ctx, "BOB", "Hello.")
	require.NoError(t, err)
	withBob := f.tree(t)

	require.NoError(t, f.s.DeletePage(f.ctx))
	assert.Empty(t, f.tree(t).Pages)

	ok, err := f.s.Undo(f.ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	restored := f.tree(t)
	require.Len(t, restored.Pages, 1)
	assert.Equal(t, withBob.Pages[0].Page.ID, restored.Pages[0].Page.ID)
	assert.Equal(t, "Hello.", restored.Pages[0].Panels[0].Characters[0].Dialogue)
	require.NotNil(t, f.s.Selection().Page, "selection follows the restored page")

	ok, err = f.s.Redo(f.ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.tree(t).Pages)
	assert.Nil(t, f.s.Selection().Page)

	ok, err = f.s.Redo(f.ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoOpMutationRecordsNoUndo(t *testing.T) {
	f := newFixture(t)
	u, _ := f.s.CanUndo()
	require.Equal(t, 0, u)
	require.NoError(t, f.s.MoveDialogueElement(f.ctx, 0, 1))
	_, err := f.s.Type(f.ctx, "plain text")
	require.NoError(t, err)
	u, _ = f.s.CanUndo()
	assert.Equal(t, 0, u)
}

func TestUndoHistorySurvivesReopen(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	_, err = f.s.AddPage(f.ctx)
	require.NoError(t, err)
	issueID := f.s.Selection().Issue.ID

	other := New(f.st, undo.Config{})
	require.NoError(t, other.SelectIssue(f.ctx, issueID))
	u, r := other.CanUndo()
	assert.Equal(t, 2, u)
	assert.Equal(t, 0, r)
	ok, err := other.Undo(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	tr, err := f.st.LoadIssueTree(f.ctx, issueID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, tr.PageNumbers())
}

func TestUpdateIssueIsUndoable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.UpdateIssue(f.ctx, func(is *domain.Issue) { is.Writer = "Jo" }))
	assert.Equal(t, "Jo", f.s.Selection().Issue.Writer)
	ok, err := f.s.Undo(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", f.s.Selection().Issue.Writer)
}

func TestDeleteIssueAndSeriesClearSelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.s.DeleteIssue(f.ctx))
	sel := f.s.Selection()
	assert.NotNil(t, sel.Series)
	assert.Nil(t, sel.Issue)
	assert.Nil(t, sel.Page)
	require.NoError(t, f.s.DeleteSeries(f.ctx))
	assert.Equal(t, Selection{}, f.s.Selection())
	counts, err := f.st.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, counts)
}

func TestSelectErrors(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.s.SelectPage(f.ctx, 1), store.ErrNotFound)
	assert.ErrorIs(t, f.s.SelectPanel(f.ctx, 1), ErrNoSelection)
	assert.ErrorIs(t, f.s.SelectIssue(f.ctx, "missing"), store.ErrNotFound)
}

func TestResumeSelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddPage(f.ctx)
	require.NoError(t, err)
	_, err = f.s.AddPanel(f.ctx)
	require.NoError(t, err)
	ids := f.s.Selection().IDs()

	other := New(f.st, undo.Config{})
	require.NoError(t, other.Resume(f.ctx, ids))
	assert.Equal(t, ids, other.Selection().IDs())

	require.NoError(t, f.s.DeletePanel(f.ctx))
	require.NoError(t, other.Resume(f.ctx, ids))
	sel := other.Selection()
	require.NotNil(t, sel.Page)
	assert.Equal(t, ids.Page, sel.Page.ID)
	assert.Equal(t, 1, sel.Panel.Number, "missing panel falls back to the first panel")

	require.NoError(t, f.s.DeleteIssue(f.ctx))
	require.NoError(t, other.Resume(f.ctx, ids))
	sel = other.Selection()
	assert.Equal(t, ids.Series, sel.Series.ID)
	assert.Nil(t, sel.Issue)
}

func TestSelectIssueNumber(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddIssue(f.ctx, domain.Issue{Title: "Second"})
	require.NoError(t, err)
	require.NoError(t, f.s.SelectIssueNumber(f.ctx, 1))
	assert.Equal(t, "Arrival", f.s.Selection().Issue.Title)
	assert.ErrorIs(t, f.s.SelectIssueNumber(f.ctx, 7), store.ErrNotFound)
}
