/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicscript/internal/domain"
)

func sampleTree() *domain.IssueTree {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.IssueTree{
		Issue: domain.Issue{Title: "The Long Night", Number: 3, Writer: "Sam Rivera", Synopsis: "Everything goes dark."},
		Pages: []domain.PageTree{
			// deliberately out of order
			{Page: domain.Page{ID: "p2", Number: 2}, Panels: []domain.PanelTree{
				{Panel: domain.Panel{ID: "p2n1", Number: 1}},
			}},
			{Page: domain.Page{ID: "p1", Number: 1}, Panels: []domain.PanelTree{
				{Panel: domain.Panel{ID: "p1n2", Number: 2, Details: "Close on the lamp."}, Characters: []domain.Character{
					{ID: "c5", Name: "sfx", Dialogue: "click", Seq: 1, CreatedAt: t0},
				}},
				{Panel: domain.Panel{ID: "p1n1", Number: 1, Details: "A city street at night.\nRain."}, Characters: []domain.Character{
					{ID: "c3", Name: "Bob (off)", Dialogue: "Over here!", Seq: 3, CreatedAt: t0},
					{ID: "c1", Name: "CAPTION", Dialogue: "Midnight.", Seq: 1, CreatedAt: t0},
					{ID: "c2", Name: "ANNA", Dialogue: "", Seq: 2, CreatedAt: t0},
					{ID: "c4", Name: "ANNA", Dialogue: "Who's there?\nShow yourself.", Seq: 4, CreatedAt: t0},
				}},
			}},
		},
	}
}

const wantStandard = `THE LONG NIGHT
ISSUE #3
Written by Sam Rivera
Everything goes dark.

PAGE 1
    PANEL 1
        A city street at night.
        Rain.
        CAPTION: Midnight.
        3. BOB (OFF): Over here!
        4. ANNA: Who's there?
            Show yourself.
    PANEL 2
        Close on the lamp.
        SFX: CLICK

PAGE 2
    PANEL 1
`

func TestRenderStandardText(t *testing.T) {
	blocks := RenderIssue(sampleTree(), Standard)
	require.Len(t, blocks, 3)
	assert.Equal(t, TitleBlock, blocks[0].Kind)
	assert.Equal(t, 1, blocks[1].Number)
	assert.Equal(t, 2, blocks[2].Number)
	assert.Equal(t, wantStandard, Text(blocks))
}

func TestRenderCompactOnlyChangesLayout(t *testing.T) {
	std := RenderIssue(sampleTree(), Standard)
	cmp := RenderIssue(sampleTree(), Compact)
	require.Len(t, cmp, len(std))
	for i := range std {
		require.Len(t, cmp[i].Lines, len(std[i].Lines))
		for j := range std[i].Lines {
			assert.Equal(t, std[i].Lines[j], cmp[i].Lines[j], "block %d line %d", i, j)
		}
	}
	text := Text(cmp)
	assert.Contains(t, text, "\n  PANEL 1\n    A city street at night.\n")
	assert.Contains(t, text, "    BOB (OFF): Over here!\n")
	assert.NotContains(t, text, "3. BOB")

	strip := func(s string) string {
		var out []string
		for _, l := range strings.Split(s, "\n") {
			l = strings.TrimSpace(l)
			if i := strings.Index(l, ". "); i > 0 && strings.Trim(l[:i], "0123456789") == "" {
				l = l[i+2:]
			}
			out = append(out, l)
		}
		return strings.Join(out, "\n")
	}
	assert.Equal(t, strip(Text(std)), strip(text))
}

func TestRenderIsDeterministic(t *testing.T) {
	tr := sampleTree()
	a := Text(RenderIssue(tr, Standard))
	b := Text(RenderIssue(tr, Standard))
	assert.Equal(t, a, b)
	// the input tree is not reordered in place
	assert.Equal(t, "p2", tr.Pages[0].Page.ID)
	assert.Equal(t, "c3", tr.Pages[1].Panels[1].Characters[0].ID)
}

func TestEmptyElementsKeepNumbering(t *testing.T) {
	blocks := RenderIssue(sampleTree(), Standard)
	var nums []int
	for _, l := range blocks[1].Lines {
		if l.Style == StyleDialogue {
			nums = append(nums, l.Number)
		}
	}
	assert.Equal(t, []int{3, 4}, nums)
}

func TestTitleBlockOmitsEmptyFields(t *testing.T) {
	blocks := RenderIssue(&domain.IssueTree{Issue: domain.Issue{Number: 1}}, Standard)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Lines, 1)
	assert.Equal(t, "ISSUE #1", blocks[0].Lines[0].Text)
	assert.Nil(t, RenderIssue(nil, Standard))
}

func TestParseSpeaker(t *testing.T) {
	cases := []struct{ in, name, mod string }{
		{"BOB", "BOB", ""},
		{"BOB (OFF)", "BOB", "OFF"},
		{"  Mary Jane (V.O.) ", "Mary Jane", "V.O."},
		{"(OFF)", "(OFF)", ""},
		{"BOB (CONT'D)", "BOB", "CONT'D"},
	}
	for _, c := range cases {
		n, m := ParseSpeaker(c.in)
		assert.Equal(t, c.name, n, c.in)
		assert.Equal(t, c.mod, m, c.in)
	}
	assert.Equal(t, "BOB (OFF)", SpeakerLabel("bob(off)"))
	assert.Equal(t, "STRASSE (ÉCHO)", SpeakerLabel("Straße (écho)"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("COMPACT")
	require.NoError(t, err)
	assert.Equal(t, Compact, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Standard, f)
	_, err = ParseFormat("wide")
	assert.Error(t, err)
}
