/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"comicscript/internal/config"
	"comicscript/internal/session"
	"comicscript/internal/store"
)

// statePath places the saved selection next to the SQLite file, or in the data dir for postgres.
func statePath(opts store.Options) (string, error) {
	if opts.Path != "" {
		return strings.TrimSuffix(opts.Path, filepath.Ext(opts.Path)) + ".state.yaml", nil
	}
	dir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state-"+opts.Driver+".yaml"), nil
}

func loadState(path string) (session.IDs, error) {
	var ids session.IDs
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ids, nil
	}
	if err != nil {
		return ids, err
	}
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return session.IDs{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ids, nil
}

func saveState(path string, ids session.IDs) error {
	data, err := yaml.Marshal(ids)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
