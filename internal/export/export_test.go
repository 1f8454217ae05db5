/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"comicscript/internal/domain"
	"comicscript/internal/render"
)

func sampleTree() *domain.IssueTree {
	return &domain.IssueTree{
		Series: &domain.Series{ID: "s1", Title: "Night Shift"},
		Issue:  domain.Issue{ID: "i1", SeriesID: "s1", Title: "The Long Dark", Number: 1, Writer: "A. Writer", Synopsis: "A night goes wrong."},
		Pages: []domain.PageTree{
			{
				Page: domain.Page{ID: "p1", IssueID: "i1", Number: 1},
				Panels: []domain.PanelTree{
					{
						Panel: domain.Panel{ID: "pn1", PageID: "p1", Number: 1, Details: "A rainy street at night."},
						Characters: []domain.Character{
							{ID: "c1", PanelID: "pn1", Name: "CAPTION", Dialogue: "Midnight.", Seq: 1},
							{ID: "c2", PanelID: "pn1", Name: "bob (off)", Dialogue: "Who's there?\nHello?", Seq: 2},
							{ID: "c3", PanelID: "pn1", Name: "SFX", Dialogue: "crash", Seq: 3},
						},
					},
					{
						Panel: domain.Panel{ID: "pn2", PageID: "p1", Number: 2},
					},
				},
			},
			{
				Page: domain.Page{ID: "p2", IssueID: "i1", Number: 2},
				Panels: []domain.PanelTree{
					{Panel: domain.Panel{ID: "pn3", PageID: "p2", Number: 1, Details: "Close on *the* door_knob."}},
				},
			},
		},
	}
}

func TestWritePDF_OnePagePerBlock(t *testing.T) {
	blocks := render.RenderIssue(sampleTree(), render.Standard)
	var buf bytes.Buffer
	if err := WritePDF(&buf, blocks, PDFOptions{Title: "Night Shift #1"}); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if got := buildPDF(blocks, PDFOptions{}).PageCount(); got != len(blocks) {
		t.Fatalf("pages = %d, want %d", got, len(blocks))
	}
}

func TestBuildPDF_LongBlockFlows(t *testing.T) {
	var lines []render.Line
	lines = append(lines, render.Line{Style: render.StylePageHeader, Text: "PAGE 1"})
	for i := 0; i < 200; i++ {
		lines = append(lines, render.Line{Style: render.StyleDescription, Indent: 2, Text: "A long description line that keeps going."})
	}
	blocks := []render.Block{{Kind: render.PageBlock, Number: 1, Lines: lines}}
	pdf := buildPDF(blocks, PDFOptions{})
	if pdf.Err() {
		t.Fatalf("pdf error: %v", pdf.Error())
	}
	if pdf.PageCount() < 2 {
		t.Fatalf("expected continuation pages, got %d", pdf.PageCount())
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "issue-1.pdf")
	if err := ExportPDF(render.RenderIssue(sampleTree(), render.Compact), out, PDFOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(render.RenderIssue(sampleTree(), render.Standard))
	for _, want := range []string{
		"# THE LONG DARK\n",
		"**ISSUE \\#1**",
		"*Written by A. Writer*",
		"## PAGE 1\n",
		"### PANEL 1\n",
		"A rainy street at night.",
		"*CAPTION:* Midnight.",
		"2\\. **BOB (OFF):** Who's there?\\\nHello?",
		"**SFX:** CRASH",
		"Close on \\*the\\* door\\_knob.",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	compact := Markdown(render.RenderIssue(sampleTree(), render.Compact))
	if strings.Contains(compact, "2\\. ") {
		t.Fatalf("compact markdown should not number dialogue:\n%s", compact)
	}
}

func TestSynopsisIsItalic(t *testing.T) {
	if f := fontFor(render.StyleSynopsis); f.style != "I" {
		t.Fatalf("pdf synopsis font = %+v, want italic", f)
	}
	blocks := render.RenderIssue(sampleTree(), render.Standard)
	if md := Markdown(blocks); !strings.Contains(md, "\n\n*A night goes wrong.*\n") {
		t.Fatalf("markdown synopsis not italic:\n%s", md)
	}
	doc, err := HTML(blocks, "Night Shift")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(doc, "<em>A night goes wrong.</em>") {
		t.Fatalf("html synopsis not italic:\n%s", doc)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	cases := map[string]string{
		"1. first":   `1\. first`,
		"- dash":     `\- dash`,
		"# hash":     `\# hash`,
		"a_b*c":      `a\_b\*c`,
		"plain text": "plain text",
	}
	for in, want := range cases {
		if got := escapeMarkdown(in); got != want {
			t.Fatalf("escapeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTML(t *testing.T) {
	doc, err := HTML(render.RenderIssue(sampleTree(), render.Standard), "Night <Shift>")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{
		"<title>Night &lt;Shift&gt;</title>",
		"<h1>THE LONG DARK</h1>",
		"<h2>PAGE 2</h2>",
		"<strong>BOB (OFF):</strong>",
		"Close on *the* door_knob.",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("html missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "<em>the</em>") {
		t.Fatalf("escaped emphasis was rendered as markup")
	}
	if strings.Contains(doc, "<ol>") {
		t.Fatalf("dialogue numbers must not become a list")
	}
}

func TestTerminal(t *testing.T) {
	blocks := render.RenderIssue(sampleTree(), render.Standard)
	var buf bytes.Buffer
	if err := Terminal(&buf, blocks); err != nil {
		t.Fatalf("terminal: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"THE LONG DARK", "PAGE 1", "PANEL 2", "2. BOB (OFF):", "Who's there?", "CRASH"} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview missing %q:\n%s", want, out)
		}
	}
}

func TestBundleRoundTrip(t *testing.T) {
	src := sampleTree()
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := EncodeBundle(src, ts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBundle(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Pages) != 2 || len(got.Pages[0].Panels) != 2 {
		t.Fatalf("structure lost: %+v", got.Pages)
	}
	if got.Pages[0].Panels[1].Characters == nil {
		t.Fatalf("empty characters should decode as an empty list")
	}
	if got.Pages[0].Panels[0].Characters[1].Dialogue != "Who's there?\nHello?" {
		t.Fatalf("dialogue = %q", got.Pages[0].Panels[0].Characters[1].Dialogue)
	}
	if render.Text(render.RenderIssue(got, render.Standard)) != render.Text(render.RenderIssue(src, render.Standard)) {
		t.Fatalf("rendered text differs after round trip")
	}
}

func TestDecodeBundle_RejectsInvalid(t *testing.T) {
	cases := []string{
		`{}`,
		`{"format":"other","version":1,"tree":{"issue":{"issueNumber":1},"pages":[]}}`,
		`{"format":"comicscript-issue","version":2,"tree":{"issue":{"issueNumber":1},"pages":[]}}`,
		`{"format":"comicscript-issue","version":1,"tree":{"issue":{"issueNumber":1},"pages":[{"page":{"pageNumber":0},"panels":[]}]}}`,
		`{"format":"comicscript-issue","version":1,"tree":{"issue":{"issueNumber":1},"pages":[{"page":{"pageNumber":1},"panels":[{"panel":{"panelNumber":1},"characters":[{"name":""}]}]}]}}`,
	}
	for _, c := range cases {
		if _, err := DecodeBundle([]byte(c)); !errors.Is(err, ErrInvalidBundle) {
			t.Fatalf("DecodeBundle(%s) err = %v, want ErrInvalidBundle", c, err)
		}
	}
	if _, err := DecodeBundle([]byte("not json")); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestBatchExport(t *testing.T) {
	dir := t.TempDir()
	second := sampleTree()
	second.Issue.Number = 2
	paths, err := BatchExport([]*domain.IssueTree{sampleTree(), second}, BatchOptions{
		Formats: []string{"pdf", "markdown", "html", "text", "json"},
		OutDir:  dir,
	})
	if err != nil {
		t.Fatalf("batch export: %v", err)
	}
	if len(paths) != 10 {
		t.Fatalf("written %d files, want 10", len(paths))
	}
	for _, name := range []string{"issue-1.pdf", "issue-1.md", "issue-1.html", "issue-1.txt", "issue-2.json"} {
		st, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", name)
		}
	}
	txt, _ := os.ReadFile(filepath.Join(dir, "issue-1.txt"))
	if string(txt) != render.Text(render.RenderIssue(sampleTree(), render.Standard)) {
		t.Fatalf("text export differs from render.Text")
	}
}

func TestBatchExport_PresetsAndErrors(t *testing.T) {
	dir := t.TempDir()
	paths, err := BatchExport([]*domain.IssueTree{sampleTree()}, BatchOptions{Preset: PresetWeb, OutDir: dir})
	if err != nil {
		t.Fatalf("web preset: %v", err)
	}
	if len(paths) != 2 || filepath.Ext(paths[0]) != ".html" || filepath.Ext(paths[1]) != ".md" {
		t.Fatalf("web preset paths = %v", paths)
	}
	if _, err := BatchExport([]*domain.IssueTree{sampleTree()}, BatchOptions{Formats: []string{"cbz"}, OutDir: dir}); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := BatchExport(nil, BatchOptions{OutDir: dir}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
