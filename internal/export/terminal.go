/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"comicscript/internal/render"
)

// termStyles holds one lipgloss style per line style plus the speaker label style.
type termStyles struct {
	byStyle map[render.Style]lipgloss.Style
	label   lipgloss.Style
	divider lipgloss.Style
}

func newTermStyles(r *lipgloss.Renderer) termStyles {
	accent := lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B8A6FF"}
	muted := lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	return termStyles{
		byStyle: map[render.Style]lipgloss.Style{
			render.StyleTitle:       r.NewStyle().Bold(true).Underline(true).Foreground(accent),
			render.StyleIssueNumber: r.NewStyle().Bold(true),
			render.StyleByline:      r.NewStyle().Italic(true).Foreground(muted),
			render.StyleSynopsis:    r.NewStyle().Italic(true).Faint(true),
			render.StylePageHeader:  r.NewStyle().Bold(true).Reverse(true),
			render.StylePanelHeader: r.NewStyle().Bold(true).Foreground(accent),
			render.StyleDescription: r.NewStyle(),
			render.StyleCaption:     r.NewStyle().Italic(true),
			render.StyleSFX:         r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
			render.StyleDialogue:    r.NewStyle(),
		},
		label:   r.NewStyle().Bold(true),
		divider: r.NewStyle().Foreground(muted),
	}
}

// Terminal writes a styled preview of blocks to w. Colors follow the capabilities
// of w; plain writers get unstyled text with the same layout as render.Text.
func Terminal(w io.Writer, blocks []render.Block) error {
	st := newTermStyles(lipgloss.NewRenderer(w))
	bw := bufio.NewWriter(w)
	for i, b := range blocks {
		if i > 0 {
			bw.WriteString(st.divider.Render(strings.Repeat("─", 40)))
			bw.WriteByte('\n')
		}
		width := b.Format.IndentWidth()
		for _, l := range b.Lines {
			style := st.byStyle[l.Style]
			rows := strings.Split(l.Text, "\n")
			bw.WriteString(strings.Repeat(" ", l.Indent*width))
			if p := l.Prefix(b.Format); p != "" {
				bw.WriteString(st.label.Render(p))
				bw.WriteByte(' ')
			}
			bw.WriteString(style.Render(strings.TrimRight(rows[0], " \t\r")))
			bw.WriteByte('\n')
			pad := strings.Repeat(" ", l.ContinuationIndent()*width)
			for _, r := range rows[1:] {
				if r = strings.TrimRight(r, " \t\r"); r != "" {
					bw.WriteString(pad)
					bw.WriteString(style.Render(r))
				}
				bw.WriteByte('\n')
			}
		}
	}
	return bw.Flush()
}
