/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"comicscript/internal/render"
)

// Letter size in points.
const (
	letterW = 612.0
	letterH = 792.0
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Built-in core fonts are used so no font files are needed.
type PDFOptions struct {
	Title    string
	Author   string
	FontSize float64 // body size; 12 when zero
	Margin   float64 // page margin; 72 when zero
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	if o.Margin <= 0 {
		o.Margin = 72
	}
	return o
}

type pdfFont struct {
	family string
	style  string
	scale  float64
	align  string
}

func fontFor(s render.Style) pdfFont {
	switch s {
	case render.StyleTitle:
		return pdfFont{"Helvetica", "B", 2, "C"}
	case render.StyleIssueNumber:
		return pdfFont{"Helvetica", "B", 1.25, "C"}
	case render.StyleByline, render.StyleSynopsis:
		return pdfFont{"Helvetica", "I", 1, "C"}
	case render.StylePageHeader:
		return pdfFont{"Helvetica", "B", 1.25, "L"}
	case render.StylePanelHeader:
		return pdfFont{"Helvetica", "B", 1, "L"}
	case render.StyleCaption:
		return pdfFont{"Times", "I", 1, "L"}
	case render.StyleSFX:
		return pdfFont{"Courier", "B", 1, "L"}
	default:
		return pdfFont{"Helvetica", "", 1, "L"}
	}
}

// buildPDF lays out blocks on letter-size pages. Every block starts a new page;
// long blocks continue on the following pages through auto page break.
func buildPDF(blocks []render.Block, opt PDFOptions) *gofpdf.Fpdf {
	opt = opt.withDefaults()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: letterW, Ht: letterH},
	})
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	right := letterW - opt.Margin

	for _, b := range blocks {
		pdf.AddPage()
		step := float64(b.Format.IndentWidth()) * opt.FontSize / 2
		for _, l := range b.Lines {
			f := fontFor(l.Style)
			size := opt.FontSize * f.scale
			lineH := size * 1.35
			pdf.SetFont(f.family, f.style, size)

			first, cont := l.Physical(b.Format)
			x := opt.Margin + float64(l.Indent)*step
			if l.Style == render.StylePageHeader && pdf.GetY() > opt.Margin+1 {
				pdf.Ln(lineH / 2)
			}
			pdf.SetX(x)
			pdf.MultiCell(right-x, lineH, tr(first), "", f.align, false)
			cx := opt.Margin + float64(l.ContinuationIndent())*step
			for _, c := range cont {
				pdf.SetX(cx)
				pdf.MultiCell(right-cx, lineH, tr(c), "", f.align, false)
			}
			switch l.Style {
			case render.StyleTitle, render.StylePageHeader:
				pdf.Ln(lineH / 2)
			case render.StylePanelHeader:
				pdf.Ln(lineH / 4)
			}
		}
	}
	return pdf
}

// WritePDF renders blocks as a PDF document to w.
func WritePDF(w io.Writer, blocks []render.Block, opt PDFOptions) error {
	pdf := buildPDF(blocks, opt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes blocks to a single multi-page PDF at outPath, creating parent directories.
func ExportPDF(blocks []render.Block, outPath string, opt PDFOptions) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	pdf := buildPDF(blocks, opt)
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
