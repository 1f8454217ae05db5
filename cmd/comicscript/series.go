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
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"comicscript/internal/domain"
	"comicscript/internal/session"
)

func newSeriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "series", Short: "Manage series"}

	var synopsis, category string
	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a series and select it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			se, err := a.sess.AddSeries(cmd.Context(), domain.Series{
				Title:    strings.Join(args, " "),
				Synopsis: synopsis,
				Category: category,
			})
			if err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "created series %q (%s)", se.Title, se.ID)
			return nil
		},
	}
	add.Flags().StringVar(&synopsis, "synopsis", "", "Series synopsis")
	add.Flags().StringVar(&category, "category", "", "Series category")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := a.sess.Service().Series(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(all) == 0 {
				mutedf(w, "no series yet")
				return nil
			}
			cur := a.sess.Selection().IDs().Series
			for _, se := range all {
				mark := " "
				if se.ID == cur {
					mark = "*"
				}
				fmt.Fprintf(w, "%s %-36s  %s\n", mark, se.ID, se.Title)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Edit the selected series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			se := a.sess.Selection().Series
			if se == nil {
				return session.ErrNoSelection
			}
			edited := *se
			f := cmd.Flags()
			if f.Changed("title") {
				edited.Title, _ = f.GetString("title")
			}
			if f.Changed("synopsis") {
				edited.Synopsis, _ = f.GetString("synopsis")
			}
			if f.Changed("category") {
				edited.Category, _ = f.GetString("category")
			}
			if err := a.sess.Service().UpdateSeries(cmd.Context(), &edited); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "updated series %q", edited.Title)
			return a.sess.SelectSeries(cmd.Context(), edited.ID)
		},
	}
	set.Flags().String("title", "", "Series title")
	set.Flags().String("synopsis", "", "Series synopsis")
	set.Flags().String("category", "", "Series category")

	rm := &cobra.Command{
		Use:   "rm",
		Short: "Delete the selected series with all its issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			se := a.sess.Selection().Series
			if se == nil {
				return session.ErrNoSelection
			}
			if err := a.sess.DeleteSeries(cmd.Context()); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "deleted series %q", se.Title)
			return nil
		},
	}

	cover := &cobra.Command{
		Use:   "cover [FILE]",
		Short: "Set the cover image of the selected series; no file clears it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			se := a.sess.Selection().Series
			if se == nil {
				return session.ErrNoSelection
			}
			img, err := readCover(args)
			if err != nil {
				return err
			}
			if err := a.sess.Service().SetSeriesCover(cmd.Context(), se, img); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "cover updated (%s)", humanize.Bytes(uint64(len(img))))
			return nil
		},
	}

	cmd.AddCommand(add, list, set, rm, cover)
	return cmd
}

func readCover(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	img, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return img, nil
}
