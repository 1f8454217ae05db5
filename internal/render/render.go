/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render projects an issue tree into an ordered sequence of styled blocks:
// one title block followed by one block per page. Rendering is pure and never fails.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"comicscript/internal/domain"
)

// Format selects the layout variant. Variants differ only in indentation width and
// whether dialogue lines carry their item number.
type Format int

const (
	Standard Format = iota
	Compact
)

func (f Format) String() string {
	if f == Compact {
		return "compact"
	}
	return "standard"
}

// IndentWidth is the number of spaces per indent level.
func (f Format) IndentWidth() int {
	if f == Compact {
		return 2
	}
	return 4
}

// ShowNumbers reports whether dialogue lines are prefixed with "N. ".
func (f Format) ShowNumbers() bool { return f == Standard }

// ParseFormat accepts "standard" or "compact" (case-insensitive); empty means standard.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return Standard, nil
	case "compact":
		return Compact, nil
	}
	return Standard, fmt.Errorf("unknown layout %q", s)
}

// Style tells an exporter how to typeset a line.
type Style int

const (
	StyleTitle Style = iota
	StyleIssueNumber
	StyleByline
	StyleSynopsis
	StylePageHeader
	StylePanelHeader
	StyleDescription
	StyleCaption
	StyleSFX
	StyleDialogue
)

var styleNames = [...]string{"title", "issue-number", "byline", "synopsis", "page-header", "panel-header", "description", "caption", "sfx", "dialogue"}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "style(" + strconv.Itoa(int(s)) + ")"
}

// Line is one logical entry of a block. Label is set for captions, sound effects and
// dialogue ("CAPTION", "SFX", "BOB (OFF)"). Number is the 1-based position of a dialogue
// element within its panel; zero for every other line. Text may span several lines.
type Line struct {
	Style  Style
	Indent int
	Number int
	Label  string
	Text   string
}

// BlockKind distinguishes the title block from page blocks.
type BlockKind int

const (
	TitleBlock BlockKind = iota
	PageBlock
)

// Block is one unit handed to a paginating exporter; each block starts a new output page.
type Block struct {
	Kind   BlockKind
	Format Format
	Number int // page number for PageBlock
	Lines  []Line
}

const (
	indentPanel   = 1
	indentContent = 2
)

// Byline formats the writer credit.
func Byline(writer string) string { return "Written by " + writer }

// RenderIssue walks the tree in canonical order and returns the title block followed by
// one block per page. A nil tree renders nothing.
func RenderIssue(t *domain.IssueTree, f Format) []Block {
	if t == nil {
		return nil
	}
	blocks := make([]Block, 0, len(t.Pages)+1)
	title := titleBlock(t.Issue)
	title.Format = f
	blocks = append(blocks, title)

	pages := append([]domain.PageTree(nil), t.Pages...)
	sortPageTrees(pages)
	for _, pt := range pages {
		b := Block{Kind: PageBlock, Format: f, Number: pt.Page.Number}
		b.Lines = append(b.Lines, Line{Style: StylePageHeader, Text: "PAGE " + strconv.Itoa(pt.Page.Number)})
		panels := append([]domain.PanelTree(nil), pt.Panels...)
		sortPanelTrees(panels)
		for _, pn := range panels {
			b.Lines = append(b.Lines, panelLines(pn)...)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func titleBlock(is domain.Issue) Block {
	b := Block{Kind: TitleBlock}
	if title := strings.TrimSpace(is.Title); title != "" {
		b.Lines = append(b.Lines, Line{Style: StyleTitle, Text: upper(title)})
	}
	b.Lines = append(b.Lines, Line{Style: StyleIssueNumber, Text: "ISSUE #" + strconv.Itoa(is.Number)})
	if w := strings.TrimSpace(is.Writer); w != "" {
		b.Lines = append(b.Lines, Line{Style: StyleByline, Text: Byline(w)})
	}
	if syn := strings.TrimSpace(is.Synopsis); syn != "" {
		b.Lines = append(b.Lines, Line{Style: StyleSynopsis, Text: syn})
	}
	return b
}

func panelLines(pn domain.PanelTree) []Line {
	out := []Line{{Style: StylePanelHeader, Indent: indentPanel, Text: "PANEL " + strconv.Itoa(pn.Panel.Number)}}
	if d := strings.TrimSpace(pn.Panel.Details); d != "" {
		out = append(out, Line{Style: StyleDescription, Indent: indentContent, Text: d})
	}
	chars := append([]domain.Character(nil), pn.Characters...)
	domain.SortCharacters(chars)
	for i, c := range chars {
		text := strings.TrimSpace(c.Dialogue)
		if text == "" {
			// still occupies position i+1
			continue
		}
		switch c.Kind() {
		case domain.KindCaption:
			out = append(out, Line{Style: StyleCaption, Indent: indentContent, Label: domain.CaptionName, Text: text})
		case domain.KindSFX:
			out = append(out, Line{Style: StyleSFX, Indent: indentContent, Label: domain.SFXName, Text: upper(text)})
		default:
			out = append(out, Line{Style: StyleDialogue, Indent: indentContent, Number: i + 1, Label: SpeakerLabel(c.Name), Text: text})
		}
	}
	return out
}

func sortPageTrees(ps []domain.PageTree) {
	pages := make([]domain.Page, len(ps))
	byID := make(map[string]domain.PageTree, len(ps))
	for i, p := range ps {
		pages[i] = p.Page
		byID[p.Page.ID] = p
	}
	if len(byID) != len(ps) {
		return // IDs missing or duplicated: keep given order
	}
	domain.SortPages(pages)
	for i, p := range pages {
		ps[i] = byID[p.ID]
	}
}

func sortPanelTrees(ps []domain.PanelTree) {
	panels := make([]domain.Panel, len(ps))
	byID := make(map[string]domain.PanelTree, len(ps))
	for i, p := range ps {
		panels[i] = p.Panel
		byID[p.Panel.ID] = p
	}
	if len(byID) != len(ps) {
		return
	}
	domain.SortPanels(panels)
	for i, p := range panels {
		ps[i] = byID[p.ID]
	}
}

var speakerRe = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)

// ParseSpeaker splits "NAME (MODIFIER)" into its parts. Names without a trailing
// parenthetical return an empty modifier.
func ParseSpeaker(name string) (speaker, modifier string) {
	n := strings.TrimSpace(name)
	if m := speakerRe.FindStringSubmatch(n); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return n, ""
}

// SpeakerLabel is the upper-cased display form of a speaker name.
func SpeakerLabel(name string) string {
	sp, mod := ParseSpeaker(name)
	sp = upper(sp)
	if mod == "" {
		return sp
	}
	return sp + " (" + upper(mod) + ")"
}

// upper applies full Unicode case mapping ("ß" becomes "SS").
// cases.Caser is stateful, so each call gets its own.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
