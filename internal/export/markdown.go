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
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"comicscript/internal/render"
)

var (
	mdEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
		`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`, `~`, `\~`,
	)
	listLeadRe = regexp.MustCompile(`^(\d+)([.)])(\s|$)`)
)

// escapeMarkdown escapes inline markup and leading list or heading markers of one row.
func escapeMarkdown(s string) string {
	s = mdEscaper.Replace(s)
	if m := listLeadRe.FindStringSubmatchIndex(s); m != nil {
		s = s[:m[3]] + `\` + s[m[3]:]
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "=") {
		s = `\` + s
	}
	return s
}

// mdParagraph joins rows with hard line breaks.
func mdParagraph(rows []string) string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, escapeMarkdown(r))
	}
	return strings.Join(out, "\\\n")
}

// Markdown renders blocks as a Markdown document. Page and panel headers become
// headings; dialogue numbers are written as literal text so they are not parsed as lists.
func Markdown(blocks []render.Block) string {
	var paras []string
	for _, b := range blocks {
		for _, l := range b.Lines {
			rows := strings.Split(l.Text, "\n")
			body := mdParagraph(rows)
			switch l.Style {
			case render.StyleTitle:
				paras = append(paras, "# "+body)
			case render.StyleIssueNumber:
				paras = append(paras, "**"+body+"**")
			case render.StyleByline, render.StyleSynopsis:
				paras = append(paras, "*"+body+"*")
			case render.StylePageHeader:
				paras = append(paras, "## "+body)
			case render.StylePanelHeader:
				paras = append(paras, "### "+body)
			case render.StyleCaption:
				paras = append(paras, "*"+escapeMarkdown(l.Label)+":* "+body)
			case render.StyleSFX, render.StyleDialogue:
				lead := "**" + escapeMarkdown(l.Label) + ":**"
				if l.Number > 0 && b.Format.ShowNumbers() {
					lead = strconv.Itoa(l.Number) + `\. ` + lead
				}
				paras = append(paras, lead+" "+body)
			default:
				if body != "" {
					paras = append(paras, body)
				}
			}
		}
	}
	if len(paras) == 0 {
		return ""
	}
	return strings.Join(paras, "\n\n") + "\n"
}

var (
	mdOnce sync.Once
	md     goldmark.Markdown
)

func markdownConverter() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		)
	})
	return md
}

const htmlStyle = `body{font-family:Helvetica,Arial,sans-serif;max-width:44em;margin:2em auto;line-height:1.4}
h1,h1+p,h1+p+p{text-align:center}
h2{page-break-before:always;border-bottom:1px solid #999}
h3{margin-left:1em}
h3~p{margin-left:2em}`

// HTML renders blocks as a standalone HTML page. The body is the Markdown output
// converted with goldmark.
func HTML(blocks []render.Block, title string) (string, error) {
	var body bytes.Buffer
	if err := markdownConverter().Convert([]byte(Markdown(blocks)), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString("<style>\n" + htmlStyle + "\n</style>\n</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
