/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package command recognises structural commands typed inline into a text field
// ("page", "panel", "NAME:") and turns them into tree mutations.
package command

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"comicscript/internal/domain"
	applog "comicscript/internal/log"
)

// Kind enumerates the inline commands.
type Kind int

const (
	None Kind = iota
	AddPage
	AddPanel
	AddCharacter
)

func (k Kind) String() string {
	switch k {
	case AddPage:
		return "add_page"
	case AddPanel:
		return "add_panel"
	case AddCharacter:
		return "add_character"
	default:
		return "none"
	}
}

// Command is the classified intent of one completed line. Name is set for AddCharacter.
type Command struct {
	Kind Kind
	Name string
}

var speakerRe = regexp.MustCompile(`^([A-Za-z0-9\s()]+):$`)

// Classify maps a completed line to a command. It is pure and never fails;
// anything unrecognised is None.
func Classify(line string) Command {
	t := strings.TrimSpace(line)
	switch {
	case strings.EqualFold(t, "page"):
		return Command{Kind: AddPage}
	case strings.EqualFold(t, "panel"):
		return Command{Kind: AddPanel}
	}
	if m := speakerRe.FindStringSubmatch(t); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return Command{Kind: AddCharacter, Name: name}
		}
	}
	return Command{Kind: None}
}

// Mutator is the subset of the tree service the interpreter drives.
type Mutator interface {
	AddPage(ctx context.Context, issue *domain.Issue) (*domain.Page, error)
	AddPanel(ctx context.Context, page *domain.Page) (*domain.Panel, error)
	AddCharacter(ctx context.Context, panel *domain.Panel, name, dialogue string) (*domain.Character, error)
}

// Context is the editing position of the field; any member may be nil.
type Context struct {
	Issue *domain.Issue
	Page  *domain.Page
	Panel *domain.Panel
}

// Result describes what Submit did. Text is the new field content.
type Result struct {
	Text      string
	Command   Command
	Applied   bool
	Page      *domain.Page
	Panel     *domain.Panel
	Character *domain.Character
}

// Interpreter runs inline commands against a Mutator.
type Interpreter struct {
	m   Mutator
	log *slog.Logger
}

// NewInterpreter returns an Interpreter applying commands through m.
func NewInterpreter(m Mutator) *Interpreter {
	return &Interpreter{m: m, log: applog.WithComponent("command")}
}

// Submit handles a line-completion event on field. When the last line is a command whose
// context is available, the mutation is applied and the command line is removed from the
// field. Otherwise a literal newline is appended.
func (in *Interpreter) Submit(ctx context.Context, c Context, field string) (Result, error) {
	head, last := splitLastLine(field)
	cmd := Classify(last)
	res := Result{Text: field + "\n", Command: cmd}

	var err error
	switch cmd.Kind {
	case AddPage:
		if c.Issue == nil {
			break
		}
		res.Page, err = in.m.AddPage(ctx, c.Issue)
		res.Applied = res.Page != nil
	case AddPanel:
		if c.Page == nil {
			break
		}
		res.Panel, err = in.m.AddPanel(ctx, c.Page)
		res.Applied = res.Panel != nil
	case AddCharacter:
		if c.Panel == nil {
			break
		}
		res.Character, err = in.m.AddCharacter(ctx, c.Panel, cmd.Name, "")
		res.Applied = res.Character != nil
	}
	if err != nil {
		in.log.Warn("inline command failed", slog.String("cmd", cmd.Kind.String()), slog.Any("err", err))
		return Result{Text: field, Command: cmd}, err
	}
	if res.Applied {
		res.Text = head
		in.log.Debug("inline command applied", slog.String("cmd", cmd.Kind.String()), slog.String("name", cmd.Name))
	} else if cmd.Kind != None {
		in.log.Debug("inline command dropped; missing context", slog.String("cmd", cmd.Kind.String()))
	}
	return res, nil
}

// splitLastLine returns the text before the final line (without its separator) and the final line.
func splitLastLine(s string) (string, string) {
	i := strings.LastIndexByte(s, '\n')
	if i < 0 {
		return "", s
	}
	return strings.TrimSuffix(s[:i], "\r"), s[i+1:]
}
