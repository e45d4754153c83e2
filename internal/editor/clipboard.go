/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"
	"unicode"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/undo"
)

// linesText flattens lines into plain text: soft breaks keep their textual
// form, paragraph and element ends become newlines.
func linesText(ls []domain.Line) string {
	var b strings.Builder
	for i, l := range ls {
		b.WriteString(l.Text)
		if i == len(ls)-1 {
			break
		}
		if l.Break == domain.BreakLast {
			b.WriteByte('\n')
		} else {
			b.WriteString(l.Break.Text())
		}
	}
	return b.String()
}

// extract copies the text between s and en; the copy ends an element.
func (e *Editor) extract(s, en domain.Pos) []domain.Line {
	var out []domain.Line
	for i := s.Line; i <= en.Line; i++ {
		l := e.doc.Lines[i]
		rs := []rune(l.Text)
		from, to := 0, len(rs)
		if i == s.Line {
			from = s.Column
		}
		if i == en.Line {
			to = en.Column
		}
		l.Text = string(rs[from:to])
		out = append(out, l)
	}
	out[len(out)-1].Break = domain.BreakLast
	return out
}

func (e *Editor) copySelection() bool {
	s, en, ok := e.doc.Selection()
	if !ok {
		return false
	}
	e.clipboard = e.extract(s, en)
	e.doc.Mark = nil
	return true
}

func (e *Editor) cut() error {
	s, en, ok := e.doc.Selection()
	if !ok {
		return nil
	}
	e.clipboard = e.extract(s, en)
	c := undo.BeginDiff(e.doc)
	e.deleteSelectionRaw()
	e.commit(c, undo.KindOther)
	return nil
}

// cleanPaste normalizes external text: CRLF to LF, tabs to spaces and
// other control characters dropped.
func cleanPaste(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t' || r == '\r':
			return ' '
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, s)
}

func singleElement(ls []domain.Line) bool {
	for _, l := range ls[:len(ls)-1] {
		if l.Break == domain.BreakLast {
			return false
		}
	}
	return true
}

func (e *Editor) paste(text string) error {
	var clip []domain.Line
	if text == "" {
		clip = e.clipboard
		if len(clip) == 0 {
			return nil
		}
	}
	c := undo.BeginDiff(e.doc)
	e.deleteSelectionRaw()
	switch {
	case clip == nil:
		e.insertText(cleanPaste(text))
	case singleElement(clip):
		e.insertText(linesText(clip))
	default:
		e.insertElements(clip)
	}
	e.commit(c, undo.KindOther)
	return nil
}

// insertText inserts text at the cursor; newlines become forced breaks.
func (e *Editor) insertText(text string) {
	start := e.doc.Cursor.Line
	for k, seg := range strings.Split(text, "\n") {
		if k > 0 {
			cur := e.doc.Cursor
			_ = e.doc.SplitLineAt(cur.Line, cur.Column)
			e.doc.Cursor = domain.Pos{Line: cur.Line + 1}
		}
		e.insertRaw(seg)
	}
	e.rewrap(start, e.doc.Cursor.Line)
}

// insertElements splices whole elements in at the cursor, splitting the
// current element when the cursor sits inside it.
func (e *Editor) insertElements(clip []domain.Line) {
	ins := domain.CloneLines(clip)
	ins[len(ins)-1].Break = domain.BreakLast
	for i := range ins {
		if e.format.Spec(ins[i].Type).Uppercase {
			ins[i].Text = upper(ins[i].Text)
		}
	}
	cur := e.doc.Cursor
	ls := e.doc.Lines
	first, last := domain.ElementFirst(ls, cur.Line), domain.ElementLast(ls, cur.Line)
	switch {
	case cur.Line == first && cur.Column == 0:
		_ = e.doc.ReplaceLines(cur.Line, 0, ins)
		e.doc.Cursor = domain.Pos{Line: cur.Line + len(ins)}
		e.rewrap(cur.Line, cur.Line+len(ins))
	case cur.Line == last && cur.Column == ls[cur.Line].Len():
		_ = e.doc.ReplaceLines(cur.Line+1, 0, ins)
		end := cur.Line + len(ins)
		e.doc.Cursor = domain.Pos{Line: end, Column: e.doc.Lines[end].Len()}
		e.rewrap(cur.Line+1, end)
	default:
		_ = e.doc.SplitLineAt(cur.Line, cur.Column)
		e.doc.Lines[cur.Line].Break = domain.BreakLast
		_ = e.doc.ReplaceLines(cur.Line+1, 0, ins)
		tail := cur.Line + 1 + len(ins)
		e.doc.Cursor = domain.Pos{Line: tail}
		e.rewrap(domain.ParagraphFirst(e.doc.Lines, cur.Line), domain.ElementLast(e.doc.Lines, tail))
	}
}
