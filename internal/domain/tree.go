/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "sort"

// IssueTree is a read-only projection of an issue and everything below it,
// in canonical order: pages by number, panels by number, elements by Seq.
type IssueTree struct {
	Series *Series    `json:"series,omitempty"`
	Issue  Issue      `json:"issue"`
	Pages  []PageTree `json:"pages"`
}

type PageTree struct {
	Page   Page        `json:"page"`
	Panels []PanelTree `json:"panels"`
}

type PanelTree struct {
	Panel      Panel       `json:"panel"`
	Characters []Character `json:"characters"`
}

// SortPages orders pages by ascending page number; ties keep creation order.
func SortPages(ps []Page) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Number != ps[j].Number {
			return ps[i].Number < ps[j].Number
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}

// SortPanels orders panels by ascending panel number; ties keep creation order.
func SortPanels(ps []Panel) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Number != ps[j].Number {
			return ps[i].Number < ps[j].Number
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}

// SortCharacters orders dialogue elements by Seq, then CreatedAt, then ID,
// so the order is total even for legacy rows with equal keys.
func SortCharacters(cs []Character) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Seq != cs[j].Seq {
			return cs[i].Seq < cs[j].Seq
		}
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}

// Contiguous reports whether nums is exactly the set {1..len(nums)}.
func Contiguous(nums []int) bool {
	seen := make([]bool, len(nums)+1)
	for _, n := range nums {
		if n < 1 || n > len(nums) || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}

// PageNumbers returns the page numbers of the tree in order.
func (t IssueTree) PageNumbers() []int {
	out := make([]int, len(t.Pages))
	for i, p := range t.Pages {
		out[i] = p.Page.Number
	}
	return out
}

// PanelNumbers returns the panel numbers of the page in order.
func (p PageTree) PanelNumbers() []int {
	out := make([]int, len(p.Panels))
	for i, pn := range p.Panels {
		out[i] = pn.Panel.Number
	}
	return out
}
