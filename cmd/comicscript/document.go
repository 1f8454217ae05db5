/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"comicscript/internal/domain"
	"comicscript/internal/export"
	"comicscript/internal/render"
	"comicscript/internal/script"
	"comicscript/internal/session"
)

func (a *app) layout(flag string) (render.Format, error) {
	if flag == "" {
		flag = a.cfg.Export.Layout
	}
	return render.ParseFormat(flag)
}

func (a *app) currentTree(ctx context.Context) (*domain.IssueTree, error) {
	is := a.sess.Selection().Issue
	if is == nil {
		return nil, session.ErrNoSelection
	}
	return a.sess.Service().IssueTree(ctx, is.ID)
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		layout string
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the formatted script of the selected issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.layout(layout)
			if err != nil {
				return err
			}
			t, err := a.currentTree(cmd.Context())
			if err != nil {
				return err
			}
			blocks := render.RenderIssue(t, f)
			if plain {
				_, err := io.WriteString(cmd.OutOrStdout(), render.Text(blocks))
				return err
			}
			return export.Terminal(cmd.OutOrStdout(), blocks)
		},
	}
	cmd.Flags().StringVar(&layout, "layout", "", "standard or compact (default from config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain text without styling")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		formats []string
		preset  string
		outDir  string
		layout  string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selected issue (or all issues of the series) to files",
		Long: `Formats: pdf, md, html, txt, json. Files are named issue-<n>.<ext>.

Presets pick default formats: print (pdf), web (html, md), archive (json, txt).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := a.layout(layout)
			if err != nil {
				return err
			}
			var trees []*domain.IssueTree
			if all {
				se := a.sess.Selection().Series
				if se == nil {
					return session.ErrNoSelection
				}
				issues, err := a.sess.Service().Issues(ctx, se.ID)
				if err != nil {
					return err
				}
				for _, is := range issues {
					t, err := a.sess.Service().IssueTree(ctx, is.ID)
					if err != nil {
						return err
					}
					trees = append(trees, t)
				}
			} else {
				t, err := a.currentTree(ctx)
				if err != nil {
					return err
				}
				trees = append(trees, t)
			}
			if outDir == "" {
				outDir = a.cfg.Export.OutDir
			}
			paths, err := export.BatchExport(trees, export.BatchOptions{
				Preset:  export.PresetName(preset),
				Formats: formats,
				Layout:  f,
				OutDir:  outDir,
			})
			for _, p := range paths {
				successf(cmd.OutOrStdout(), "wrote %s", p)
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVarP(&formats, "format", "f", nil, "Output formats (comma separated)")
	fl.StringVar(&preset, "preset", "", "print, web or archive")
	fl.StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	fl.StringVar(&layout, "layout", "", "standard or compact (default from config)")
	fl.BoolVar(&all, "all", false, "Export every issue of the selected series")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var number int
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON bundle or a plain-text script as a new issue of the selected series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			se := a.sess.Selection().Series
			if se == nil {
				return session.ErrNoSelection
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, err := decodeScript(args[0], data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("number") {
				t.Issue.Number = number
			} else if taken, err := a.issueNumberTaken(ctx, se.ID, t.Issue.Number); err != nil {
				return err
			} else if taken {
				warnf(cmd.ErrOrStderr(), "issue #%d exists; using the next free number", t.Issue.Number)
				t.Issue.Number = 0
			}
			is, err := a.sess.Service().ImportIssue(ctx, se, t)
			if err != nil {
				return err
			}
			if err := a.sess.SelectIssue(ctx, is.ID); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "imported issue #%d with %d pages", is.Number, len(t.Pages))
			return nil
		},
	}
	cmd.Flags().IntVar(&number, "number", 0, "Issue number for the import (default: keep or next free)")
	return cmd
}

func decodeScript(path string, data []byte) (*domain.IssueTree, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return export.DecodeBundle(data)
	}
	t, errs := script.Parse(string(data))
	if len(errs) > 0 {
		all := make([]error, len(errs))
		for i, e := range errs {
			all[i] = e
		}
		return nil, fmt.Errorf("parse %s: %w", path, errors.Join(all...))
	}
	return t, nil
}

func (a *app) issueNumberTaken(ctx context.Context, seriesID string, n int) (bool, error) {
	if n <= 0 {
		return false, nil
	}
	issues, err := a.sess.Service().Issues(ctx, seriesID)
	if err != nil {
		return false, err
	}
	for _, is := range issues {
		if is.Number == n {
			return true, nil
		}
	}
	return false, nil
}

func newUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last change to the selected issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := a.sess.Undo(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				warnf(cmd.OutOrStdout(), "nothing to undo")
				return nil
			}
			successf(cmd.OutOrStdout(), "undone")
			return nil
		},
	}
}

func newRedoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone change to the selected issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := a.sess.Redo(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				warnf(cmd.OutOrStdout(), "nothing to redo")
				return nil
			}
			successf(cmd.OutOrStdout(), "redone")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current selection and database totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			sel := a.sess.Selection()
			headingf(w, "Selection")
			if sel.Series == nil {
				mutedf(w, "  nothing selected")
			} else {
				fmt.Fprintf(w, "  series  %s\n", sel.Series.Title)
			}
			if sel.Issue != nil {
				fmt.Fprintf(w, "  issue   #%d %s\n", sel.Issue.Number, sel.Issue.Title)
				u, r := a.sess.CanUndo()
				fmt.Fprintf(w, "  history %d undo, %d redo (%s)\n", u, r, humanize.Bytes(uint64(a.sess.HistoryBytes())))
			}
			if sel.Page != nil {
				fmt.Fprintf(w, "  page    %d\n", sel.Page.Number)
			}
			if sel.Panel != nil {
				fmt.Fprintf(w, "  panel   %d\n", sel.Panel.Number)
			}
			c, err := a.st.Count(cmd.Context())
			if err != nil {
				return err
			}
			headingf(w, "Database (%s)", a.st.Driver())
			fmt.Fprintf(w, "  %d series, %d issues, %d pages, %d panels, %d dialogue elements\n",
				c.Series, c.Issues, c.Pages, c.Panels, c.Characters)
			if orphans, err := a.st.OrphanCount(cmd.Context()); err == nil && orphans > 0 {
				warnf(w, "%d orphaned rows", orphans)
			}
			if sv, err := a.st.SchemaVersion(cmd.Context()); err == nil {
				mutedf(w, "  schema v%d", sv)
			}
			return nil
		},
	}
}
