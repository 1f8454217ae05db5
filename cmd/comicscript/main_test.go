/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicscript/internal/crash"
)

type cli struct {
	dir string
	db  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	for _, k := range []string{"CSW_DB_DRIVER", "CSW_DB_PATH", "CSW_DB_DSN", "CSW_EXPORT_LAYOUT", "CSW_EXPORT_DIR", "CSW_LOG_FILE"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	return &cli{dir: dir, db: filepath.Join(dir, "script.db")}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a, &crash.Info{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", c.db, "--config", filepath.Join(c.dir, "config.yaml")}, args...))
	err := root.ExecuteContext(context.Background())
	if a.st != nil {
		err = errors.Join(err, a.close())
	}
	return out.String(), err
}

func (c *cli) must(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, "comicscript %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCLIWritingSession(t *testing.T) {
	c := newCLI(t)
	c.must(t, "series", "add", "Harbor", "Lights")
	c.must(t, "issue", "add", "--title", "Arrival", "--writer", "Jo Doe")
	out := c.must(t, "type", "page")
	assert.Contains(t, out, "add_page applied")
	c.must(t, "panel", "describe", "A rainy pier at night.")
	out = c.must(t, "type", "Some text", "NARRATOR:")
	assert.Contains(t, out, "Some text")
	c.must(t, "line", "edit", "1", "It was late.")
	c.must(t, "line", "add", "SFX", "splash")

	out = c.must(t, "preview", "--plain")
	want := "ARRIVAL\nISSUE #1\nWritten by Jo Doe\n\n" +
		"PAGE 1\n" +
		"    PANEL 1\n" +
		"        A rainy pier at night.\n" +
		"        1. NARRATOR: It was late.\n" +
		"        SFX: SPLASH\n"
	assert.Equal(t, want, out)

	out = c.must(t, "preview", "--plain", "--layout", "compact")
	assert.Contains(t, out, "    NARRATOR: It was late.\n")

	outDir := filepath.Join(c.dir, "out")
	c.must(t, "export", "-f", "txt,json,pdf", "-o", outDir)
	txt, err := os.ReadFile(filepath.Join(outDir, "issue-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, want, string(txt))
	_, err = os.Stat(filepath.Join(outDir, "issue-1.pdf"))
	require.NoError(t, err)

	c.must(t, "import", filepath.Join(outDir, "issue-1.json"))
	out = c.must(t, "issue", "list")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "* #2")

	out = c.must(t, "--issue", "1", "status")
	assert.Contains(t, out, "issue   #1 Arrival")
	assert.Contains(t, out, "2 issues, 2 pages, 2 panels, 4 dialogue elements")
}

func TestCLIUndoAcrossRuns(t *testing.T) {
	c := newCLI(t)
	c.must(t, "series", "add", "Undo")
	c.must(t, "issue", "add")
	c.must(t, "page", "add")
	c.must(t, "page", "add")
	out := c.must(t, "undo")
	assert.Contains(t, out, "undone")
	out = c.must(t, "status")
	assert.Contains(t, out, "1 pages")
	c.must(t, "redo")
	out = c.must(t, "status")
	assert.Contains(t, out, "2 pages")
	assert.Contains(t, out, "history 2 undo, 0 redo")
}

func TestCLIDeleteRenumbers(t *testing.T) {
	c := newCLI(t)
	c.must(t, "series", "add", "Pages")
	c.must(t, "issue", "add")
	for i := 0; i < 3; i++ {
		c.must(t, "page", "add")
	}
	c.must(t, "--page", "1", "page", "rm")
	out := c.must(t, "preview", "--plain")
	assert.Contains(t, out, "PAGE 1\n")
	assert.Contains(t, out, "PAGE 2\n")
	assert.NotContains(t, out, "PAGE 3")
}

func TestCLIErrors(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "page", "add")
	assert.Error(t, err)
	_, err = c.run(t, "--series", "missing", "status")
	assert.Error(t, err)
	out := c.must(t, "version")
	assert.NotEmpty(t, strings.TrimSpace(out))
}
