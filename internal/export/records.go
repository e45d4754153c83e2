/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns paginated screenplay lines into positioned draw
// records and renders them as PDF documents or PNG page previews.
package export

import (
	"strconv"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/pagination"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

const (
	tenth = 10
	// ContinuedLabel opens a page that resumes a scene.
	ContinuedLabel = "CONTINUED:"
	// MoreLabel closes a page that interrupts a speech.
	MoreLabel = "(MORE)"
	// ContdSuffix follows the repeated character cue on the next page.
	ContdSuffix = " (CONT'D)"
)

// Record is one positioned run of text on a page. X is a column counted
// from the left margin; Y is in tenths of a line from the top margin.
type Record struct {
	Text  string
	X     int
	Y     int
	Style domain.Style
}

// PageRecords lays out 1-based page n of a paginated screenplay. Pages past
// the first carry a page number header, a "CONTINUED:" label when they do not
// open a scene and a repeated character cue when they resume a speech. A page
// that interrupts a speech ends with "(MORE)".
func PageRecords(ls []domain.Line, f *domain.Format, res pagination.Result, n int) []Record {
	if len(ls) == 0 || n < 1 || n > res.PageCount() {
		return nil
	}
	start, end := res.PageBounds(n)
	var out []Record
	y := 0
	if n > 1 {
		num := strconv.Itoa(n) + "."
		out = append(out, Record{Text: num, X: rightColumn(f) - textlayout.Cells(num)})
		y = f.HeaderLines * tenth
		if !pagination.IsFirstLineOfScene(ls, start) {
			out = append(out, Record{Text: ContinuedLabel, X: f.Spec(domain.Action).Indent, Y: y})
			y += 2 * tenth
		}
		if pagination.NeedsMore(ls, start-1) {
			if name := speakerBefore(ls, start); name != "" {
				cs := f.Spec(domain.Character)
				out = append(out, Record{Text: name + ContdSuffix, X: cs.Indent, Y: y, Style: cs.Style})
				y += tenth
			}
		}
	}
	for i := start; i <= end; i++ {
		if i > start {
			if ls[i-1].Break == domain.BreakLast {
				y += f.Spec(ls[i].Type).SpacingBefore
			} else {
				y += f.Spec(ls[i-1].Type).SpacingBetween
			}
		}
		spec := f.Spec(ls[i].Type)
		x := spec.Indent
		if ls[i].Type == domain.Paren && i > 0 && !ls[i-1].Break.EndsParagraph() {
			x++
		}
		out = append(out, Record{Text: ls[i].Text, X: x, Y: y, Style: spec.Style})
		y += tenth
	}
	if pagination.NeedsMore(ls, end) {
		out = append(out, Record{Text: MoreLabel, X: f.Spec(domain.Character).Indent, Y: y})
	}
	return out
}

// rightColumn is the column where the widest type ends.
func rightColumn(f *domain.Format) int {
	r := 0
	for _, s := range f.Types {
		if s.Indent+s.Width > r {
			r = s.Indent + s.Width
		}
	}
	return r
}

// speakerBefore finds the character cue that owns the speech running into
// line i.
func speakerBefore(ls []domain.Line, i int) string {
	for j := i - 1; j >= 0; j-- {
		switch ls[j].Type {
		case domain.Dialogue, domain.Paren:
			continue
		case domain.Character:
			return script.CueName(script.ElementText(ls, domain.ElementFirst(ls, j)))
		}
		return ""
	}
	return ""
}

// PageHeight returns the tallest Y any record of f can reach, in tenths.
func PageHeight(f *domain.Format) int { return f.LinesPerPage * tenth }

// PageWidth returns the number of columns a page of f spans.
func PageWidth(f *domain.Format) int { return rightColumn(f) }
