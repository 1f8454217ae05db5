/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"comicscript/internal/domain"
	applog "comicscript/internal/log"
	"comicscript/internal/render"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb     PresetName = "web"
	PresetPrint   PresetName = "print"
	PresetArchive PresetName = "archive"
)

// Output formats and their file extensions.
const (
	FormatPDF      = "pdf"
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// ParseFormatName normalizes a format name; "markdown" and "text" are accepted aliases.
func ParseFormatName(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatPDF, FormatMarkdown, FormatHTML, FormatText, FormatJSON:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	case "text", "plain":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// BatchOptions controls batch export across formats and issues.
//
// Files are named issue-<n>.<ext> after the issue number and written to OutDir.
// An empty OutDir means "exports/<preset>" relative to the working directory.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // pdf, md, html, txt, json; empty means preset defaults
	Layout  render.Format
	OutDir  string
	Now     func() time.Time // bundle timestamp; time.Now when nil
}

// BatchExport writes every tree in every requested format and returns the written paths.
func BatchExport(trees []*domain.IssueTree, opt BatchOptions) ([]string, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	norm := make([]string, 0, len(formats))
	for _, f := range formats {
		nf, err := ParseFormatName(f)
		if err != nil {
			return nil, err
		}
		norm = append(norm, nf)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		preset := opt.Preset
		if preset == "" {
			preset = PresetPrint
		}
		baseOut = filepath.Join("exports", string(preset))
	}
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	l := applog.WithOperation(applog.WithComponent("export"), "batch")

	var written []string
	for _, t := range trees {
		if t == nil {
			continue
		}
		for _, f := range norm {
			out := filepath.Join(baseOut, fmt.Sprintf("issue-%d.%s", t.Issue.Number, f))
			if err := ExportIssue(t, f, out, opt.Layout, now()); err != nil {
				return written, fmt.Errorf("%s issue %d: %w", f, t.Issue.Number, err)
			}
			l.Debug("exported", "issue", t.Issue.Number, "format", f, "path", out)
			written = append(written, out)
		}
	}
	l.Info("batch export finished", "files", len(written), "dir", baseOut)
	return written, nil
}

// ExportIssue renders one issue tree in the given format to outPath.
func ExportIssue(t *domain.IssueTree, format, outPath string, layout render.Format, now time.Time) error {
	f, err := ParseFormatName(format)
	if err != nil {
		return err
	}
	blocks := render.RenderIssue(t, layout)
	if f == FormatPDF {
		return ExportPDF(blocks, outPath, PDFOptions{Title: documentTitle(t), Author: t.Issue.Writer})
	}
	var data []byte
	switch f {
	case FormatMarkdown:
		data = []byte(Markdown(blocks))
	case FormatHTML:
		s, err := HTML(blocks, documentTitle(t))
		if err != nil {
			return err
		}
		data = []byte(s)
	case FormatText:
		data = []byte(render.Text(blocks))
	case FormatJSON:
		if data, err = EncodeBundle(t, now); err != nil {
			return err
		}
	}
	return writeFile(outPath, data)
}

func documentTitle(t *domain.IssueTree) string {
	title := strings.TrimSpace(t.Issue.Title)
	if title == "" && t.Series != nil {
		title = strings.TrimSpace(t.Series.Title)
	}
	if title == "" {
		return fmt.Sprintf("Issue #%d", t.Issue.Number)
	}
	return fmt.Sprintf("%s #%d", title, t.Issue.Number)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatHTML, FormatMarkdown}
	case PresetArchive:
		return []string{FormatJSON, FormatText}
	default:
		return []string{FormatPDF}
	}
}
