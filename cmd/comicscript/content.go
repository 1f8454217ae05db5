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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"comicscript/internal/render"
	"comicscript/internal/session"
)

func newPageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "page", Short: "Add or delete pages of the selected issue"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add",
			Short: "Append a page (with its first panel) and select it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if a.sess.Selection().Issue == nil {
					return session.ErrNoSelection
				}
				p, err := a.sess.AddPage(cmd.Context())
				if err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "added page %d", p.Number)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm",
			Short: "Delete the selected page; later pages are renumbered",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p := a.sess.Selection().Page
				if p == nil {
					return session.ErrNoSelection
				}
				if err := a.sess.DeletePage(cmd.Context()); err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "deleted page %d", p.Number)
				return nil
			},
		},
	)
	return cmd
}

func newPanelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "panel", Short: "Add, delete, duplicate or describe panels of the selected page"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add",
			Short: "Append a panel to the selected page and select it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if a.sess.Selection().Page == nil {
					return session.ErrNoSelection
				}
				pn, err := a.sess.AddPanel(cmd.Context())
				if err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "added panel %d", pn.Number)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm",
			Short: "Delete the selected panel; later panels are renumbered",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pn := a.sess.Selection().Panel
				if pn == nil {
					return session.ErrNoSelection
				}
				if err := a.sess.DeletePanel(cmd.Context()); err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "deleted panel %d", pn.Number)
				return nil
			},
		},
		&cobra.Command{
			Use:   "dup",
			Short: "Duplicate the selected panel to the end of its page",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if a.sess.Selection().Panel == nil {
					return session.ErrNoSelection
				}
				cp, err := a.sess.DuplicatePanel(cmd.Context())
				if err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "duplicated as panel %d", cp.Number)
				return nil
			},
		},
		&cobra.Command{
			Use:   "describe TEXT...",
			Short: "Set the description of the selected panel",
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.sess.Selection().Panel == nil {
					return session.ErrNoSelection
				}
				return a.sess.UpdatePanelDetails(cmd.Context(), strings.Join(args, " "))
			},
		},
	)
	return cmd
}

func newLineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Edit dialogue elements of the selected panel (positions are 1-based)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := a.sess.Elements(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(cs) == 0 {
				mutedf(w, "panel has no dialogue")
			}
			for i, c := range cs {
				fmt.Fprintf(w, "%d. %s: %s\n", i+1, render.SpeakerLabel(c.Name), c.Dialogue)
			}
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME [TEXT...]",
			Short: "Append a dialogue element; CAPTION and SFX are special names",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.sess.Selection().Panel == nil {
					return session.ErrNoSelection
				}
				c, err := a.sess.AddCharacter(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "added %s", c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit N TEXT...",
			Short: "Replace the text of element N",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := position(args[0])
				if err != nil {
					return err
				}
				return a.sess.UpdateDialogue(cmd.Context(), n, strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "rename N NAME",
			Short: "Change the speaker of element N",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := position(args[0])
				if err != nil {
					return err
				}
				return a.sess.RenameCharacter(cmd.Context(), n, strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "rm N",
			Short: "Delete element N",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := position(args[0])
				if err != nil {
					return err
				}
				return a.sess.DeleteDialogueElement(cmd.Context(), n)
			},
		},
		&cobra.Command{
			Use:   "mv FROM TO",
			Short: "Move element FROM to position TO",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := position(args[0])
				if err != nil {
					return err
				}
				to, err := position(args[1])
				if err != nil {
					return err
				}
				return a.sess.MoveDialogueElement(cmd.Context(), from-1, to-1)
			},
		},
	)
	return cmd
}

func position(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("position %q: %w", s, err)
	}
	return n, nil
}

func newTypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "type LINE...",
		Short: "Type lines into the selected panel's text field",
		Long: `Each argument is one line of the field. When the last line is an inline command it
is applied at the current selection:

  page     append a page to the issue
  panel    append a panel to the page
  NAME:    append a dialogue element named NAME to the panel

The remaining field text is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sess.Type(cmd.Context(), strings.Join(args, "\n"))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if res.Applied {
				successf(w, "%s applied", res.Command.Kind)
			}
			if res.Text != "" {
				fmt.Fprint(w, res.Text)
				if !strings.HasSuffix(res.Text, "\n") {
					fmt.Fprintln(w)
				}
			}
			return nil
		},
	}
}
