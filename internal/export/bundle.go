/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"comicscript/internal/domain"
)

const (
	BundleFormat  = "comicscript-issue"
	BundleVersion = 1
)

// ErrInvalidBundle is returned when a document does not conform to the bundle schema.
var ErrInvalidBundle = errors.New("invalid issue bundle")

//go:embed bundle.schema.json
var bundleSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func bundleSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(bundleSchemaJSON))
	})
	return schema, schemaErr
}

// Bundle is the versioned JSON envelope of one issue tree.
type Bundle struct {
	Format     string           `json:"format"`
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Tree       domain.IssueTree `json:"tree"`
}

// EncodeBundle serializes t as an indented bundle document.
func EncodeBundle(t *domain.IssueTree, now time.Time) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("issue tree is nil")
	}
	b := Bundle{Format: BundleFormat, Version: BundleVersion, ExportedAt: now.UTC(), Tree: *t}
	b.Tree.Pages = make([]domain.PageTree, len(t.Pages))
	for i, pt := range t.Pages {
		pt.Panels = append([]domain.PanelTree{}, pt.Panels...)
		for j := range pt.Panels {
			pt.Panels[j].Characters = append([]domain.Character{}, pt.Panels[j].Characters...)
		}
		b.Tree.Pages[i] = pt
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidateBundle checks data against the embedded bundle schema.
func ValidateBundle(data []byte) error {
	s, err := bundleSchema()
	if err != nil {
		return fmt.Errorf("load bundle schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(msgs, "; "))
	}
	return nil
}

// DecodeBundle validates data and returns the contained issue tree.
func DecodeBundle(data []byte) (*domain.IssueTree, error) {
	if err := ValidateBundle(data); err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b.Tree, nil
}
