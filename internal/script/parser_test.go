/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"testing"

	"comicscript/internal/domain"
	"comicscript/internal/render"
)

func TestParseBasicScript(t *testing.T) {
	input := `HARBOR LIGHTS
ISSUE #2
Written by Sam Rivera
The ship comes in.

PAGE 1
  PANEL 1
    Fog over the docks.
    CAPTION: Dawn.
    1. ANNA (OFF): Hello?
      Anyone?
    SFX: CREAK
  PANEL 2
    Wide shot.

PAGE 2
  Empty street.`

	tr, errs := Parse(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if tr.Issue.Title != "HARBOR LIGHTS" || tr.Issue.Number != 2 || tr.Issue.Writer != "Sam Rivera" {
		t.Fatalf("unexpected issue header: %+v", tr.Issue)
	}
	if tr.Issue.Synopsis != "The ship comes in." {
		t.Fatalf("unexpected synopsis: %q", tr.Issue.Synopsis)
	}
	if len(tr.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(tr.Pages))
	}
	p1 := tr.Pages[0]
	if len(p1.Panels) != 2 {
		t.Fatalf("expected 2 panels on page 1, got %d", len(p1.Panels))
	}
	pn := p1.Panels[0]
	if pn.Panel.Details != "Fog over the docks." {
		t.Fatalf("unexpected details: %q", pn.Panel.Details)
	}
	if len(pn.Characters) != 3 {
		t.Fatalf("expected 3 elements, got %+v", pn.Characters)
	}
	anna := pn.Characters[1]
	if anna.Name != "ANNA (OFF)" || anna.Dialogue != "Hello?\nAnyone?" || anna.Seq != 2 {
		t.Fatalf("unexpected dialogue element: %+v", anna)
	}
	if pn.Characters[2].Kind() != domain.KindSFX {
		t.Fatalf("expected SFX element, got %+v", pn.Characters[2])
	}
	// Text directly under a page gets an implicit first panel.
	p2 := tr.Pages[1]
	if len(p2.Panels) != 1 || p2.Panels[0].Panel.Details != "Empty street." {
		t.Fatalf("unexpected page 2: %+v", p2)
	}
}

func TestPanelBeforePageIsReported(t *testing.T) {
	tr, errs := Parse("PANEL 1\nBOB: Hi.")
	if len(errs) != 1 || errs[0].Line != 1 {
		t.Fatalf("expected one error on line 1, got %+v", errs)
	}
	if len(tr.Pages) != 1 || len(tr.Pages[0].Panels) != 1 || len(tr.Pages[0].Panels[0].Characters) != 1 {
		t.Fatalf("unexpected tree: %+v", tr)
	}
}

func TestRenderedTextRoundTrips(t *testing.T) {
	src := &domain.IssueTree{
		Issue: domain.Issue{Title: "The Long Night", Number: 3, Writer: "Sam Rivera", Synopsis: "Everything goes dark."},
		Pages: []domain.PageTree{
			{Page: domain.Page{ID: "p1", Number: 1}, Panels: []domain.PanelTree{
				{Panel: domain.Panel{ID: "a", Number: 1, Details: "A street.\nRain."}, Characters: []domain.Character{
					{ID: "c1", Name: "CAPTION", Dialogue: "Midnight.", Seq: 1},
					{ID: "c2", Name: "Bob (off)", Dialogue: "Over here!\nQuick!", Seq: 2},
					{ID: "c3", Name: "SFX", Dialogue: "click", Seq: 3},
				}},
				{Panel: domain.Panel{ID: "b", Number: 2}},
			}},
			{Page: domain.Page{ID: "p2", Number: 2}, Panels: []domain.PanelTree{
				{Panel: domain.Panel{ID: "c", Number: 1, Details: "Dawn."}},
			}},
		},
	}
	for _, f := range []render.Format{render.Standard, render.Compact} {
		want := render.Text(render.RenderIssue(src, f))
		parsed, errs := Parse(want)
		if len(errs) != 0 {
			t.Fatalf("%s: parse errors: %+v", f, errs)
		}
		got := render.Text(render.RenderIssue(parsed, f))
		if got != want {
			t.Fatalf("%s: round trip mismatch\n--- want\n%s\n--- got\n%s", f, want, got)
		}
	}
}
