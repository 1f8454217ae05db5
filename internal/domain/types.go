/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persisted entities of a comic script:
// Series -> Issue -> Page -> Panel -> Character (dialogue element).
// Children reference their parent by ID only; parents never hold child slices here.
// Ordered child lists are available through the tree views in tree.go.

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel names for non-speech dialogue elements.
const (
	CaptionName = "CAPTION"
	SFXName     = "SFX"
)

// NewID returns a new time-ordered entity identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Series is the top-level collection of issues.
type Series struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Synopsis  string    `json:"synopsis,omitempty"`
	Category  string    `json:"category,omitempty"`
	HasCover  bool      `json:"hasCover,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Issue is one numbered installment of a series.
type Issue struct {
	ID         string    `json:"id"`
	SeriesID   string    `json:"seriesId"`
	Title      string    `json:"title"`
	Number     int       `json:"issueNumber"`
	Synopsis   string    `json:"synopsis,omitempty"`
	Writer     string    `json:"writer,omitempty"`
	CoverStyle string    `json:"coverStyle,omitempty"`
	HasCover   bool      `json:"hasCover,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Page is a 1-based, contiguously numbered page of an issue.
type Page struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	Number    int       `json:"pageNumber"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Panel is a 1-based, contiguously numbered panel of a page.
type Panel struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Number    int       `json:"panelNumber"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Character is a dialogue element: a speaking character's line, a caption or a sound effect.
// Seq is the ordering key within the panel; it is rewritten on reorder.
type Character struct {
	ID        string    `json:"id"`
	PanelID   string    `json:"panelId"`
	Name      string    `json:"name"`
	Dialogue  string    `json:"dialogue,omitempty"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ElementKind classifies a dialogue element by its name.
type ElementKind int

const (
	KindDialogue ElementKind = iota
	KindCaption
	KindSFX
)

func (k ElementKind) String() string {
	switch k {
	case KindCaption:
		return "caption"
	case KindSFX:
		return "sfx"
	default:
		return "dialogue"
	}
}

// Kind reports whether the element is a caption, a sound effect or spoken dialogue.
func (c Character) Kind() ElementKind {
	n := strings.TrimSpace(c.Name)
	switch {
	case strings.EqualFold(n, CaptionName):
		return KindCaption
	case strings.EqualFold(n, SFXName):
		return KindSFX
	default:
		return KindDialogue
	}
}
