/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout reflows screenplay paragraphs into fixed-width lines.
// Widths are measured in monospace cells so that every element type lines
// up on a character grid the way a typewritten page does.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"goscreenwriter/internal/domain"
)

// Cells returns the display width of s in monospace cells.
func Cells(s string) int { return runewidth.StringWidth(s) }

// VisibleCells returns the width of s without trailing spaces.
func VisibleCells(s string) int { return runewidth.StringWidth(strings.TrimRight(s, " ")) }

// LineWidth returns the width limit of the n-th wrapped line (0-based) of a
// paragraph of type t.
func LineWidth(spec domain.TypeSpec, t domain.ElementType, n int) int {
	w := spec.Width
	if t == domain.Paren && n > 0 {
		w--
	}
	if w < 1 {
		w = 1
	}
	return w
}

// fitRunes returns how many leading runes of text fit into w cells.
func fitRunes(text []rune, w int) int {
	used := 0
	for i, r := range text {
		used += runewidth.RuneWidth(r)
		if used > w {
			return i
		}
	}
	return len(text)
}

func runeCells(text []rune) int {
	n := 0
	for _, r := range text {
		n += runewidth.RuneWidth(r)
	}
	return n
}

// WrapLine greedily wraps the text of ln to its type's width. The returned
// lines share ln's type; the last one carries ln's break, the others Space
// (broken at a space run) or None (hard break inside a word).
func WrapLine(ln domain.Line, spec domain.TypeSpec) []domain.Line {
	var out []domain.Line
	text := []rune(ln.Text)
	for {
		w := LineWidth(spec, ln.Type, len(out))
		if runeCells(text) <= w {
			return append(out, domain.Line{Text: string(text), Type: ln.Type, Break: ln.Break})
		}
		fit := fitRunes(text, w)
		sp := -1
		for i := fit; i >= 0; i-- {
			if i < len(text) && text[i] == ' ' {
				sp = i
				break
			}
		}
		if sp >= 0 {
			// spaces may overflow the width; swallow the whole run
			j := sp
			for j < len(text) && text[j] == ' ' {
				j++
			}
			if j == len(text) {
				return append(out, domain.Line{Text: string(text), Type: ln.Type, Break: ln.Break})
			}
			out = append(out, domain.Line{Text: string(text[:j-1]), Type: ln.Type, Break: domain.BreakSpace})
			text = text[j:]
			continue
		}
		if fit < 1 {
			fit = 1
		}
		out = append(out, domain.Line{Text: string(text[:fit]), Type: ln.Type, Break: domain.BreakNone})
		text = text[fit:]
	}
}

// ParagraphText joins lines[first..last] with the textual form of their
// internal breaks.
func ParagraphText(ls []domain.Line, first, last int) string {
	var b strings.Builder
	for i := first; i <= last; i++ {
		b.WriteString(ls[i].Text)
		if i < last {
			b.WriteString(ls[i].Break.Text())
		}
	}
	return b.String()
}

// paragraphOffset converts p into a rune offset from the paragraph start, or
// -1 when p lies outside [first,last].
func paragraphOffset(ls []domain.Line, first, last int, p domain.Pos) int {
	if p.Line < first || p.Line > last {
		return -1
	}
	off := 0
	for i := first; i < p.Line; i++ {
		off += ls[i].Len() + utf8.RuneCountInString(ls[i].Break.Text())
	}
	return off + p.Column
}

// locate walks a rune offset across freshly wrapped lines.
func locate(ls []domain.Line, base, off int) domain.Pos {
	for k, l := range ls {
		n := l.Len()
		if off <= n || k == len(ls)-1 {
			if off > n {
				off = n
			}
			return domain.Pos{Line: base + k, Column: off}
		}
		off -= n + utf8.RuneCountInString(l.Break.Text())
		if off < 0 {
			return domain.Pos{Line: base + k + 1}
		}
	}
	return domain.Pos{Line: base}
}

// RewrapParagraph re-wraps the paragraph containing line in place and keeps
// the cursor and mark on the same character even though line boundaries
// move. It returns the paragraph's new bounds.
func RewrapParagraph(doc *domain.Document, line int, f *domain.Format) (int, int) {
	ls := doc.Lines
	first := domain.ParagraphFirst(ls, line)
	last := domain.ParagraphLast(ls, line)

	curOff := paragraphOffset(ls, first, last, doc.Cursor)
	markOff := -1
	if doc.Mark != nil {
		markOff = paragraphOffset(ls, first, last, *doc.Mark)
	}

	t := ls[first].Type
	src := domain.Line{Text: ParagraphText(ls, first, last), Type: t, Break: ls[last].Break}
	wrapped := WrapLine(src, f.Spec(t))
	// first..last come from the paragraph scans above, so the range is always valid.
	_ = doc.ReplaceLines(first, last-first+1, wrapped)

	delta := len(wrapped) - (last - first + 1)
	if curOff >= 0 {
		doc.Cursor = locate(wrapped, first, curOff)
	} else if doc.Cursor.Line > last {
		doc.Cursor.Line += delta
	}
	if doc.Mark != nil {
		if markOff >= 0 {
			m := locate(wrapped, first, markOff)
			doc.Mark = &m
		} else if doc.Mark.Line > last {
			doc.Mark.Line += delta
		}
	}
	return first, first + len(wrapped) - 1
}

// RewrapRange re-wraps every paragraph intersecting lines[from..to] and
// returns the index of the last line of the last paragraph touched.
func RewrapRange(doc *domain.Document, from, to int, f *domain.Format) int {
	if from < 0 {
		from = 0
	}
	end := from
	for i := from; i < len(doc.Lines); {
		oldLen := len(doc.Lines)
		_, last := RewrapParagraph(doc, i, f)
		to += len(doc.Lines) - oldLen
		end = last
		if last >= to {
			break
		}
		i = last + 1
	}
	return end
}

// RewrapAll re-wraps the whole document.
func RewrapAll(doc *domain.Document, f *domain.Format) {
	if len(doc.Lines) == 0 {
		return
	}
	RewrapRange(doc, 0, len(doc.Lines)-1, f)
}
