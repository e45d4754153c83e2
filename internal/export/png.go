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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/pagination"
)

// Cell metrics of basicfont.Face7x13.
const (
	cellW = 7
	cellH = 13
)

// PNGOptions controls PNG page previews. Margins are in cells.
type PNGOptions struct {
	IncludeGuides bool
	MarginCols    int // default 4
	MarginLines   int // default 2
	Pages         []int
}

func (o PNGOptions) withDefaults() PNGOptions {
	if o.MarginCols <= 0 {
		o.MarginCols = 4
	}
	if o.MarginLines <= 0 {
		o.MarginLines = 2
	}
	return o
}

// RenderPage rasterizes 1-based page n with a fixed 7x13 bitmap face.
// Bold text is drawn twice with a one pixel offset; italics are not rendered.
func RenderPage(ls []domain.Line, f *domain.Format, res pagination.Result, n int, opt PNGOptions) *image.RGBA {
	opt = opt.withDefaults()
	bodyW := PageWidth(f) * cellW
	bodyH := PageHeight(f) * cellH / tenth
	ox, oy := opt.MarginCols*cellW, opt.MarginLines*cellH
	img := image.NewRGBA(image.Rect(0, 0, bodyW+2*ox, bodyH+2*oy))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	if opt.IncludeGuides {
		strokeRect(img, ox, oy, ox+bodyW-1, oy+bodyH-1, color.RGBA{R: 255, A: 255})
	}
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	ink := color.RGBA{A: 255}
	for _, r := range PageRecords(ls, f, res, n) {
		x := ox + r.X*cellW
		top := oy + r.Y*cellH/tenth
		base := top + basicfont.Face7x13.Ascent
		d.Dot = fixed.P(x, base)
		d.DrawString(r.Text)
		if r.Style&domain.StyleBold != 0 {
			d.Dot = fixed.P(x+1, base)
			d.DrawString(r.Text)
		}
		if r.Style&domain.StyleUnderline != 0 {
			w := d.MeasureString(r.Text).Ceil()
			fillRect(img, x, base+1, x+w-1, base+1, ink)
		}
	}
	return img
}

// ExportPNGPages writes one page-<n>.png per page into outDir.
func ExportPNGPages(ls []domain.Line, f *domain.Format, res pagination.Result, outDir string, opt PNGOptions) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	var written []string
	for _, n := range pageNumbers(res.PageCount(), opt.Pages) {
		img := RenderPage(ls, f, res, n, opt)
		name := filepath.Join(outDir, fmt.Sprintf("page-%d.png", n))
		out, err := os.Create(name)
		if err != nil {
			return written, fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(out, img); err != nil {
			_ = out.Close()
			return written, fmt.Errorf("encode png: %w", err)
		}
		if err := out.Close(); err != nil {
			return written, fmt.Errorf("close png: %w", err)
		}
		written = append(written, name)
	}
	return written, nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
