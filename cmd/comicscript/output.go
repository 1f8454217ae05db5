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
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
)

func styles(w io.Writer) (success, warning, failure, muted, primary lipgloss.Style) {
	r := lipgloss.NewRenderer(w)
	return r.NewStyle().Foreground(colorSuccess).Bold(true),
		r.NewStyle().Foreground(colorWarning).Bold(true),
		r.NewStyle().Foreground(colorError).Bold(true),
		r.NewStyle().Foreground(colorMuted),
		r.NewStyle().Foreground(colorPrimary).Bold(true)
}

// successf prints a success message
func successf(w io.Writer, format string, args ...any) {
	s, _, _, _, _ := styles(w)
	fmt.Fprintln(w, s.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// warnf prints a warning message
func warnf(w io.Writer, format string, args ...any) {
	_, s, _, _, _ := styles(w)
	fmt.Fprintln(w, s.Render("⚠")+" "+fmt.Sprintf(format, args...))
}

// errorf prints an error message
func errorf(w io.Writer, format string, args ...any) {
	_, _, s, _, _ := styles(w)
	fmt.Fprintln(w, s.Render("✗")+" "+fmt.Sprintf(format, args...))
}

func mutedf(w io.Writer, format string, args ...any) {
	_, _, _, s, _ := styles(w)
	fmt.Fprintln(w, s.Render(fmt.Sprintf(format, args...)))
}

func headingf(w io.Writer, format string, args ...any) {
	_, _, _, _, s := styles(w)
	fmt.Fprintln(w, s.Render(fmt.Sprintf(format, args...)))
}
