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
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"comicscript/internal/config"
	"comicscript/internal/crash"
	applog "comicscript/internal/log"
	"comicscript/internal/session"
	"comicscript/internal/store"
	"comicscript/internal/undo"
	"comicscript/internal/version"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg       config.AppConfig
	st        *store.Store
	sess      *session.Session
	statePath string
	log       *slog.Logger
}

// Global flags.
type rootFlags struct {
	configFile string
	driver     string
	dbPath     string
	dsn        string
	series     string
	issue      int
	page       int
	panel      int
	verbose    bool
}

func newRootCmd(a *app, info *crash.Info) *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "comicscript",
		Short: "Write comic scripts: series, issues, pages, panels and dialogue",
		Long: `comicscript keeps comic scripts in a local database and formats them as
print-ready documents.

The current selection (series, issue, page, panel) is remembered between runs.
Use --series, --issue, --page and --panel on any command to move it.

Examples:
  comicscript series add "Harbor Lights"
  comicscript issue add --title "Arrival" --writer "Jo Doe"
  comicscript type page
  comicscript type "A rainy pier at night." "NARRATOR:"
  comicscript preview
  comicscript export --format pdf,md`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsStore(cmd) {
				return nil
			}
			return a.open(cmd, flags, info)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.st == nil {
				return nil
			}
			return a.close()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (default: user config dir)")
	pf.StringVar(&flags.driver, "driver", "", "Storage driver: sqlite or postgres")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database file")
	pf.StringVar(&flags.dsn, "dsn", "", "Postgres connection string")
	pf.StringVar(&flags.series, "series", "", "Select series by ID or title")
	pf.IntVar(&flags.issue, "issue", 0, "Select issue by number")
	pf.IntVar(&flags.page, "page", 0, "Select page by number")
	pf.IntVar(&flags.panel, "panel", 0, "Select panel by number")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newSeriesCmd(a),
		newIssueCmd(a),
		newPageCmd(a),
		newPanelCmd(a),
		newLineCmd(a),
		newTypeCmd(a),
		newPreviewCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newUndoCmd(a),
		newRedoCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return root
}

func skipsStore(cmd *cobra.Command) bool {
	return cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion"
}

func execute(ctx context.Context, info *crash.Info) int {
	a := &app{}
	root := newRootCmd(a, info)
	err := root.ExecuteContext(ctx)
	if a.st != nil {
		// PersistentPostRunE does not run after a failed command.
		err = errors.Join(err, a.close())
	}
	if err != nil {
		errorf(root.ErrOrStderr(), "%v", err)
		return 1
	}
	return 0
}

// open loads configuration, initializes logging, opens the store and restores the selection.
func (a *app) open(cmd *cobra.Command, flags rootFlags, info *crash.Info) error {
	ctx := cmd.Context()
	var err error
	if flags.configFile != "" {
		a.cfg, err = config.LoadFile(flags.configFile)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.driver != "" {
		a.cfg.Storage.Driver = flags.driver
	}
	if flags.dbPath != "" {
		a.cfg.Storage.Path = flags.dbPath
	}
	if flags.dsn != "" {
		a.cfg.Storage.DSN = flags.dsn
	}
	logOpts := a.cfg.LogOptions()
	if flags.verbose {
		logOpts.Level = "debug"
	}
	applog.Init(logOpts)
	a.log = applog.WithComponent("cli")

	opts := store.Options{Driver: a.cfg.Storage.Driver, DSN: a.cfg.Storage.DSN}
	if opts.Driver == "" || opts.Driver == store.DriverSQLite {
		if opts.Path, err = a.cfg.DatabasePath(); err != nil {
			return err
		}
	}
	a.st, err = store.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if a.statePath, err = statePath(opts); err != nil {
		return err
	}
	if dir, err := config.DataDir(); err == nil {
		info.Dir = filepath.Join(dir, "crash")
	}
	info.Database = opts.Path
	if info.Database == "" {
		info.Database = a.st.Driver()
	}
	info.OnCrash = a.st.Close

	a.sess = session.New(a.st, undo.Config{MaxBytes: a.cfg.Undo.MaxBytes, MaxPerIssue: a.cfg.Undo.MaxPerItem})
	ids, err := loadState(a.statePath)
	if err != nil {
		a.log.Warn("ignoring unreadable selection state", slog.String("path", a.statePath), slog.Any("err", err))
	}
	if err := a.sess.Resume(ctx, ids); err != nil {
		return err
	}
	return a.applySelection(ctx, flags)
}

func (a *app) applySelection(ctx context.Context, flags rootFlags) error {
	if ref := strings.TrimSpace(flags.series); ref != "" {
		if err := a.selectSeries(ctx, ref); err != nil {
			return err
		}
	}
	if flags.issue > 0 {
		if err := a.sess.SelectIssueNumber(ctx, flags.issue); err != nil {
			return err
		}
	}
	if flags.page > 0 {
		if err := a.sess.SelectPage(ctx, flags.page); err != nil {
			return err
		}
	}
	if flags.panel > 0 {
		if err := a.sess.SelectPanel(ctx, flags.panel); err != nil {
			return err
		}
	}
	return nil
}

// selectSeries accepts a series ID or a case-insensitive title.
func (a *app) selectSeries(ctx context.Context, ref string) error {
	err := a.sess.SelectSeries(ctx, ref)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	all, lerr := a.sess.Service().Series(ctx)
	if lerr != nil {
		return lerr
	}
	for _, se := range all {
		if strings.EqualFold(se.Title, ref) {
			return a.sess.SelectSeries(ctx, se.ID)
		}
	}
	return fmt.Errorf("series %q: %w", ref, store.ErrNotFound)
}

func (a *app) close() error {
	var serr error
	if a.sess != nil {
		serr = saveState(a.statePath, a.sess.Selection().IDs())
	}
	cerr := a.st.Close()
	a.st = nil
	return errors.Join(serr, cerr)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
