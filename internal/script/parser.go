/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"comicscript/internal/domain"
)

var (
	reIssue  = regexp.MustCompile(`^(?i)ISSUE\s*#\s*(\d+)$`)
	reByline = regexp.MustCompile(`^(?i)Written by\s+(.+)$`)
	rePage   = regexp.MustCompile(`^(?i)PAGE(?:\s+(\d+))?$`)
	rePanel  = regexp.MustCompile(`^(?i)PANEL(?:\s+(\d+))?$`)
	// Optional "N. " item number, an upper-case name with an optional (MODIFIER), a colon.
	reElement = regexp.MustCompile(`^(?:\d+\.\s+)?([A-Z0-9][A-Z0-9 .'\-]*?(?:\s*\([^()]*\))?)\s*:\s*(.*)$`)
)

// Parse reads a script into an issue tree without IDs.
// Supported syntax:
// - Title block before the first page: an upper-case title, "ISSUE #N", "Written by NAME",
//   any other lines form the synopsis.
// - "PAGE N" starts a page; "PANEL N" starts a panel. Numbers are optional.
//
// - Inside a panel: "[N. ]NAME[ (MOD)]: text", "CAPTION: text" and "SFX: text" add dialogue
//   elements; any other line is panel description.
//   - Lines indented deeper than the previous element continue its text.
//
// Blank lines end continuations. Elements outside any page are reported and skipped.
func Parse(input string) (*domain.IssueTree, []Error) {
	t := &domain.IssueTree{Pages: []domain.PageTree{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	var (
		synopsis []string
		last     *domain.Character // element open for continuation
		lastInd  int
		details  []string
	)

	curPanel := func() *domain.PanelTree {
		if len(t.Pages) == 0 {
			return nil
		}
		pg := &t.Pages[len(t.Pages)-1]
		if len(pg.Panels) == 0 {
			pg.Panels = append(pg.Panels, domain.PanelTree{Panel: domain.Panel{Number: 1}, Characters: []domain.Character{}})
		}
		return &pg.Panels[len(pg.Panels)-1]
	}
	flushDetails := func() {
		if len(details) == 0 {
			return
		}
		if pn := curPanel(); pn != nil {
			if pn.Panel.Details != "" {
				pn.Panel.Details += "\n"
			}
			pn.Panel.Details += strings.Join(details, "\n")
		}
		details = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		trim := strings.TrimSpace(line)
		ind := len(line) - len(strings.TrimLeft(line, " \t"))

		if trim == "" {
			last = nil
			continue
		}
		// Continuation of the previous element
		if last != nil && ind > lastInd {
			last.Dialogue += "\n" + trim
			continue
		}
		last = nil

		if m := rePage.FindStringSubmatch(trim); m != nil {
			flushDetails()
			n := len(t.Pages) + 1
			if m[1] != "" {
				n, _ = strconv.Atoi(m[1])
			}
			t.Pages = append(t.Pages, domain.PageTree{Page: domain.Page{Number: n}, Panels: []domain.PanelTree{}})
			continue
		}
		if m := rePanel.FindStringSubmatch(trim); m != nil {
			flushDetails()
			if len(t.Pages) == 0 {
				errs = append(errs, Error{Line: lineNo, Column: ind + 1, Message: "panel before any page; starting page 1"})
				t.Pages = append(t.Pages, domain.PageTree{Page: domain.Page{Number: 1}, Panels: []domain.PanelTree{}})
			}
			pg := &t.Pages[len(t.Pages)-1]
			n := len(pg.Panels) + 1
			if m[1] != "" {
				n, _ = strconv.Atoi(m[1])
			}
			pg.Panels = append(pg.Panels, domain.PanelTree{Panel: domain.Panel{Number: n}, Characters: []domain.Character{}})
			continue
		}

		// Title block
		if len(t.Pages) == 0 {
			switch m := reIssue.FindStringSubmatch(trim); {
			case m != nil:
				t.Issue.Number, _ = strconv.Atoi(m[1])
			case reByline.MatchString(trim):
				t.Issue.Writer = strings.TrimSpace(reByline.FindStringSubmatch(trim)[1])
			case t.Issue.Title == "" && t.Issue.Number == 0 && len(synopsis) == 0:
				t.Issue.Title = trim
			default:
				synopsis = append(synopsis, trim)
			}
			continue
		}

		if m := reElement.FindStringSubmatch(trim); m != nil {
			flushDetails()
			pn := curPanel()
			name := strings.TrimSpace(m[1])
			pn.Characters = append(pn.Characters, domain.Character{
				Name:     name,
				Dialogue: strings.TrimSpace(m[2]),
				Seq:      len(pn.Characters) + 1,
			})
			last = &pn.Characters[len(pn.Characters)-1]
			lastInd = ind
			continue
		}
		// Free text inside a page is panel description.
		details = append(details, trim)
	}
	flushDetails()
	t.Issue.Synopsis = strings.Join(synopsis, "\n")

	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return t, errs
}
