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
	"strconv"
	"strings"
)

// Prefix is the lead-in of a labelled line: "1. BOB:", "CAPTION:". Empty for unlabelled lines.
func (l Line) Prefix(f Format) string {
	if l.Label == "" {
		return ""
	}
	p := l.Label + ":"
	if l.Number > 0 && f.ShowNumbers() {
		p = strconv.Itoa(l.Number) + ". " + p
	}
	return p
}

// Physical splits the line into printable rows without indentation. Continuation rows
// of labelled lines are returned with cont set; they are printed one level deeper.
func (l Line) Physical(f Format) (first string, cont []string) {
	rows := strings.Split(l.Text, "\n")
	for i := range rows {
		rows[i] = strings.TrimRight(rows[i], " \t\r")
	}
	first = rows[0]
	if p := l.Prefix(f); p != "" {
		first = p + " " + first
	}
	return first, rows[1:]
}

// ContinuationIndent is the indent level of wrapped rows of l.
func (l Line) ContinuationIndent() int {
	if l.Label != "" {
		return l.Indent + 1
	}
	return l.Indent
}

// Text renders blocks as plain text. Blocks are separated by a blank line.
func Text(blocks []Block) string {
	var b strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		w := blk.Format.IndentWidth()
		for _, l := range blk.Lines {
			first, cont := l.Physical(blk.Format)
			b.WriteString(strings.Repeat(" ", l.Indent*w))
			b.WriteString(first)
			b.WriteByte('\n')
			pad := strings.Repeat(" ", l.ContinuationIndent()*w)
			for _, c := range cont {
				if c != "" {
					b.WriteString(pad)
					b.WriteString(c)
				}
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
