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
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/pagination"
)

// PDFOptions controls PDF export. Units are points.
// Text is set in the built-in Courier face so no font embedding is needed;
// at 12pt one column is 7.2pt wide and one line is 12pt high.
type PDFOptions struct {
	Title         string
	Author        string
	FontSize      float64 // default 12
	LeftMargin    float64 // default 108 (1.5in)
	TopMargin     float64 // default 72
	IncludeGuides bool
	Pages         []int // 1-based; if empty, export all pages
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	if o.LeftMargin <= 0 {
		o.LeftMargin = 108
	}
	if o.TopMargin <= 0 {
		o.TopMargin = 72
	}
	return o
}

// WritePDF renders the paginated screenplay to w as US-letter pages.
func WritePDF(w io.Writer, ls []domain.Line, f *domain.Format, res pagination.Result, opt PDFOptions) error {
	opt = opt.withDefaults()
	colW := opt.FontSize * 0.6
	lineH := opt.FontSize

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 612, Ht: 792}})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetCreator("goscreenwriter", false)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, n := range pageNumbers(res.PageCount(), opt.Pages) {
		pdf.AddPage()
		if opt.IncludeGuides {
			pdf.SetDrawColor(255, 0, 0)
			pdf.SetLineWidth(0.2)
			pdf.Rect(opt.LeftMargin, opt.TopMargin, float64(PageWidth(f))*colW, float64(PageHeight(f))/tenth*lineH, "D")
		}
		for _, r := range PageRecords(ls, f, res, n) {
			pdf.SetFont("Courier", pdfStyle(r.Style), opt.FontSize)
			x := opt.LeftMargin + float64(r.X)*colW
			// Text takes the baseline; records address the top of a line.
			y := opt.TopMargin + float64(r.Y)/tenth*lineH + opt.FontSize*0.8
			pdf.Text(x, y, tr(r.Text))
			if r.Style&domain.StyleUnderline != 0 {
				pdf.SetDrawColor(0, 0, 0)
				pdf.SetLineWidth(0.5)
				pdf.Line(x, y+1.5, x+float64(len([]rune(r.Text)))*colW, y+1.5)
			}
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the screenplay to outPath, creating its directory.
func ExportPDF(ls []domain.Line, f *domain.Format, res pagination.Result, outPath string, opt PDFOptions) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WritePDF(out, ls, f, res, opt); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	return nil
}

// pageNumbers returns the pages to render: all of them, or the valid subset
// of specific.
func pageNumbers(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	out := make([]int, 0, len(specific))
	for _, n := range specific {
		if n >= 1 && n <= total {
			out = append(out, n)
		}
	}
	return out
}

func pdfStyle(s domain.Style) string {
	var st string
	if s&domain.StyleBold != 0 {
		st += "B"
	}
	if s&domain.StyleItalic != 0 {
		st += "I"
	}
	return st
}
