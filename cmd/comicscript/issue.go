/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"comicscript/internal/domain"
	"comicscript/internal/session"
)

func newIssueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "issue", Short: "Manage issues of the selected series"}

	var tmpl domain.Issue
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an issue and select it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.sess.Selection().Series == nil {
				return session.ErrNoSelection
			}
			if tmpl.Writer == "" {
				tmpl.Writer = a.cfg.Export.Writer
			}
			is, err := a.sess.AddIssue(cmd.Context(), tmpl)
			if err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "created issue #%d %q", is.Number, is.Title)
			return nil
		},
	}
	af := add.Flags()
	af.StringVar(&tmpl.Title, "title", "", "Issue title")
	af.IntVar(&tmpl.Number, "number", 0, "Issue number (default: next free)")
	af.StringVar(&tmpl.Writer, "writer", "", "Writer byline")
	af.StringVar(&tmpl.Synopsis, "synopsis", "", "Issue synopsis")

	list := &cobra.Command{
		Use:   "list",
		Short: "List issues of the selected series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			se := a.sess.Selection().Series
			if se == nil {
				return session.ErrNoSelection
			}
			issues, err := a.sess.Service().Issues(cmd.Context(), se.ID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			headingf(w, "%s", se.Title)
			if len(issues) == 0 {
				mutedf(w, "no issues yet")
				return nil
			}
			cur := a.sess.Selection().IDs().Issue
			for _, is := range issues {
				mark := " "
				if is.ID == cur {
					mark = "*"
				}
				fmt.Fprintf(w, "%s #%-4d %s\n", mark, is.Number, is.Title)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Edit the selected issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			err := a.sess.UpdateIssue(cmd.Context(), func(is *domain.Issue) {
				if f.Changed("title") {
					is.Title, _ = f.GetString("title")
				}
				if f.Changed("number") {
					is.Number, _ = f.GetInt("number")
				}
				if f.Changed("writer") {
					is.Writer, _ = f.GetString("writer")
				}
				if f.Changed("synopsis") {
					is.Synopsis, _ = f.GetString("synopsis")
				}
			})
			if err != nil {
				return err
			}
			is := a.sess.Selection().Issue
			successf(cmd.OutOrStdout(), "updated issue #%d", is.Number)
			return nil
		},
	}
	sf := set.Flags()
	sf.String("title", "", "Issue title")
	sf.Int("number", 0, "Issue number")
	sf.String("writer", "", "Writer byline")
	sf.String("synopsis", "", "Issue synopsis")

	rm := &cobra.Command{
		Use:   "rm",
		Short: "Delete the selected issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			is := a.sess.Selection().Issue
			if is == nil {
				return session.ErrNoSelection
			}
			if err := a.sess.DeleteIssue(cmd.Context()); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "deleted issue #%d", is.Number)
			return nil
		},
	}

	var style string
	cover := &cobra.Command{
		Use:   "cover [FILE]",
		Short: "Set the cover image and style of the selected issue; no file clears it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			is := a.sess.Selection().Issue
			if is == nil {
				return session.ErrNoSelection
			}
			img, err := readCover(args)
			if err != nil {
				return err
			}
			if err := a.sess.Service().SetIssueCover(cmd.Context(), is, img, style); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "cover updated (%s)", humanize.Bytes(uint64(len(img))))
			return nil
		},
	}
	cover.Flags().StringVar(&style, "style", "", "Cover style label")

	cmd.AddCommand(add, list, set, rm, cover)
	return cmd
}
