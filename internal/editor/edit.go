/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"strings"
	"unicode"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/textlayout"
	"goscreenwriter/internal/undo"
)

// upper maps rune by rune so rune columns stay valid.
func upper(s string) string { return strings.Map(unicode.ToUpper, s) }

func spliceRunes(s string, from, to int, ins string) string {
	rs := []rune(s)
	return string(rs[:from]) + ins + string(rs[to:])
}

func (e *Editor) rewrap(from, to int) {
	textlayout.RewrapRange(e.doc, from, to, &e.format)
}

func (e *Editor) elementEmpty(first int) bool {
	ls := e.doc.Lines
	for i := first; i <= domain.ElementLast(ls, first); i++ {
		if ls[i].Text != "" {
			return false
		}
	}
	return true
}

// insertRaw puts text at the cursor without wrapping. text must not contain
// newlines.
func (e *Editor) insertRaw(text string) {
	cur := e.doc.Cursor
	ln := &e.doc.Lines[cur.Line]
	if e.format.Spec(ln.Type).Uppercase {
		text = upper(text)
	}
	ln.Text = spliceRunes(ln.Text, cur.Column, cur.Column, text)
	e.doc.Cursor.Column += len([]rune(text))
}

func (e *Editor) insertChar(r rune) error {
	switch {
	case r == '\n' || r == '\r':
		return e.insertForcedBreak()
	case r == '\t':
		r = ' '
	case !unicode.IsPrint(r):
		return fmt.Errorf("%w: %U", ErrInvalidInput, r)
	}
	if _, _, ok := e.doc.Selection(); ok {
		c := undo.BeginDiff(e.doc)
		e.deleteSelectionRaw()
		e.insertRaw(string(r))
		textlayout.RewrapParagraph(e.doc, e.doc.Cursor.Line, &e.format)
		e.commit(c, undo.KindOther)
		return nil
	}
	line := e.doc.Cursor.Line
	first, last, _ := e.doc.ParagraphBounds(line)
	c := undo.BeginLocalized(e.doc, first, last-first+1)
	e.insertRaw(string(r))
	textlayout.RewrapParagraph(e.doc, line, &e.format)
	kind := undo.InsertNonSpace
	if r == ' ' {
		kind = undo.InsertSpace
	}
	e.commit(c, kind)
	return nil
}

// deleteRange removes the text between s and en. When the range spans
// elements the remainder joins the first element and takes its type.
func (e *Editor) deleteRange(s, en domain.Pos) {
	ls := e.doc.Lines
	if s.Line == en.Line {
		ls[s.Line].Text = spliceRunes(ls[s.Line].Text, s.Column, en.Column, "")
		e.doc.Cursor = s
		e.rewrap(s.Line, s.Line)
		return
	}
	crosses := false
	for i := s.Line; i < en.Line; i++ {
		if ls[i].Break == domain.BreakLast {
			crosses = true
		}
	}
	t := ls[s.Line].Type
	head := []rune(ls[s.Line].Text)[:s.Column]
	tail := []rune(ls[en.Line].Text)[en.Column:]
	merged := domain.Line{Text: string(head) + string(tail), Type: t, Break: ls[en.Line].Break}
	_ = e.doc.ReplaceLines(s.Line, en.Line-s.Line+1, []domain.Line{merged})
	if crosses {
		e.doc.SetElementType(s.Line, t)
	}
	e.doc.Cursor = s
	e.rewrap(s.Line, domain.ElementLast(e.doc.Lines, s.Line))
}

// deleteSelectionRaw deletes the selection, if any, without recording it.
func (e *Editor) deleteSelectionRaw() bool {
	s, en, ok := e.doc.Selection()
	e.doc.Mark = nil
	if !ok {
		return false
	}
	e.deleteRange(s, en)
	return true
}

func (e *Editor) deleteSelection() bool {
	if _, _, ok := e.doc.Selection(); !ok {
		return false
	}
	c := undo.BeginDiff(e.doc)
	e.deleteSelectionRaw()
	e.commit(c, undo.KindOther)
	return true
}

func (e *Editor) deleteBackward() error {
	if e.deleteSelection() {
		return nil
	}
	cur := e.doc.Cursor
	if cur.Column > 0 {
		first, last, _ := e.doc.ParagraphBounds(cur.Line)
		c := undo.BeginLocalized(e.doc, first, last-first+1)
		ln := &e.doc.Lines[cur.Line]
		ln.Text = spliceRunes(ln.Text, cur.Column-1, cur.Column, "")
		e.doc.Cursor.Column--
		textlayout.RewrapParagraph(e.doc, cur.Line, &e.format)
		e.commit(c, undo.DeleteBackward)
		return nil
	}
	if cur.Line == 0 {
		return nil
	}
	return e.joinAt(cur.Line-1, undo.DeleteBackward)
}

func (e *Editor) deleteForward() error {
	if e.deleteSelection() {
		return nil
	}
	cur := e.doc.Cursor
	ln := e.doc.Lines[cur.Line]
	if cur.Column < ln.Len() {
		first, last, _ := e.doc.ParagraphBounds(cur.Line)
		c := undo.BeginLocalized(e.doc, first, last-first+1)
		e.doc.Lines[cur.Line].Text = spliceRunes(ln.Text, cur.Column, cur.Column+1, "")
		textlayout.RewrapParagraph(e.doc, cur.Line, &e.format)
		e.commit(c, undo.DeleteForward)
		return nil
	}
	if cur.Line == len(e.doc.Lines)-1 {
		return nil
	}
	return e.joinAt(cur.Line, undo.DeleteForward)
}

// joinAt resolves a deletion across the break ending line. A space break
// loses its space, a hard word break loses the neighbouring rune, a forced
// break joins two paragraphs and an element end joins two elements.
func (e *Editor) joinAt(line int, kind undo.Kind) error {
	ls := e.doc.Lines
	up, down := ls[line], ls[line+1]
	first := domain.ParagraphFirst(ls, line)
	var last int
	switch up.Break {
	case domain.BreakForced:
		last = domain.ParagraphLast(ls, line+1)
	case domain.BreakLast:
		last = domain.ElementLast(ls, line+1)
	default:
		last = domain.ParagraphLast(ls, line)
	}
	c := undo.BeginLocalized(e.doc, first, last-first+1)

	switch {
	case up.Break == domain.BreakNone && kind == undo.DeleteBackward && up.Len() > 0:
		ls[line].Text = spliceRunes(up.Text, up.Len()-1, up.Len(), "")
		textlayout.RewrapParagraph(e.doc, line, &e.format)
	case up.Break == domain.BreakNone && kind == undo.DeleteForward && down.Len() > 0:
		ls[line+1].Text = spliceRunes(down.Text, 0, 1, "")
		textlayout.RewrapParagraph(e.doc, line, &e.format)
	default:
		col, err := e.doc.JoinLines(line)
		if err != nil {
			return err
		}
		e.doc.Cursor = domain.Pos{Line: line, Column: col}
		end := domain.ParagraphLast(e.doc.Lines, line)
		if up.Break == domain.BreakLast {
			end = domain.ElementLast(e.doc.Lines, line)
		}
		e.rewrap(line, end)
	}
	e.commit(c, kind)
	return nil
}

// retypeElement converts the element starting at first and applies the
// parenthetical and upper-case fix-ups.
func (e *Editor) retypeElement(first int, to domain.ElementType) {
	ls := e.doc.Lines
	from := ls[first].Type
	last := domain.ElementLast(ls, first)
	e.doc.SetElementType(first, to)
	onLine := e.doc.Cursor.Line == first
	switch {
	case to == domain.Paren && from != domain.Paren && first == last && ls[first].Text == "":
		ls[first].Text = "()"
		if onLine {
			e.doc.Cursor.Column = 1
		}
	case from == domain.Paren && to != domain.Paren && first == last && ls[first].Text == "()":
		ls[first].Text = ""
		if onLine {
			e.doc.Cursor.Column = 0
		}
	}
	if e.format.Spec(to).Uppercase {
		for i := first; i <= last; i++ {
			ls[i].Text = upper(ls[i].Text)
		}
	}
}

func (e *Editor) convertType(t domain.ElementType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: element type %d", ErrInvalidInput, int(t))
	}
	first, last, _ := e.doc.ElementBounds(e.doc.Cursor.Line)
	if e.doc.Lines[first].Type == t {
		return nil
	}
	c := undo.BeginLocalized(e.doc, first, last-first+1)
	e.retypeElement(first, t)
	e.rewrap(first, last)
	e.commit(c, undo.KindOther)
	return nil
}

func (e *Editor) joinOrConvert(reverse bool) error {
	cur := e.doc.Cursor
	first := domain.ElementFirst(e.doc.Lines, cur.Line)
	if cur.Column == 0 && cur.Line == first && first > 0 && !e.elementEmpty(first) {
		return e.joinAt(first-1, undo.KindOther)
	}
	spec := e.format.Spec(e.doc.Lines[cur.Line].Type)
	t := spec.TabType
	if reverse {
		t = spec.ShiftTabType
	}
	return e.convertType(t)
}

func (e *Editor) splitElement() error {
	e.doc.Mark = nil
	cur := e.doc.Cursor
	first, last, _ := e.doc.ElementBounds(cur.Line)
	c := undo.BeginLocalized(e.doc, first, last-first+1)
	t := e.doc.Lines[cur.Line].Type
	atEnd := cur.Line == last && cur.Column == e.doc.Lines[cur.Line].Len()
	if err := e.doc.SplitLineAt(cur.Line, cur.Column); err != nil {
		return err
	}
	e.doc.Lines[cur.Line].Break = domain.BreakLast
	e.doc.Cursor = domain.Pos{Line: cur.Line + 1}
	if next := e.format.Spec(t).EnterType; atEnd && next != t {
		e.retypeElement(cur.Line+1, next)
	}
	textlayout.RewrapParagraph(e.doc, cur.Line, &e.format)
	nl := e.doc.Cursor.Line
	e.rewrap(nl, domain.ElementLast(e.doc.Lines, nl))
	e.commit(c, undo.KindOther)
	return nil
}

func (e *Editor) insertForcedBreak() error {
	e.doc.Mark = nil
	cur := e.doc.Cursor
	first, last, _ := e.doc.ParagraphBounds(cur.Line)
	c := undo.BeginLocalized(e.doc, first, last-first+1)
	if err := e.doc.SplitLineAt(cur.Line, cur.Column); err != nil {
		return err
	}
	e.doc.Cursor = domain.Pos{Line: cur.Line + 1}
	textlayout.RewrapParagraph(e.doc, cur.Line, &e.format)
	textlayout.RewrapParagraph(e.doc, e.doc.Cursor.Line, &e.format)
	e.commit(c, undo.KindOther)
	return nil
}

func (e *Editor) undo() error {
	if err := e.hist.Undo(e.doc); err != nil {
		return err
	}
	e.changed()
	return nil
}

func (e *Editor) redo() error {
	if err := e.hist.Redo(e.doc); err != nil {
		return err
	}
	e.changed()
	return nil
}

// removeType deletes every element of type t.
func (e *Editor) removeType(t domain.ElementType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: element type %d", ErrInvalidInput, int(t))
	}
	c := undo.BeginFull(e.doc)
	ls := e.doc.Lines
	cur := e.doc.Cursor
	out := make([]domain.Line, 0, len(ls))
	newCur := cur
	removed := 0
	for i := 0; i < len(ls); {
		last := domain.ElementLast(ls, i)
		inside := cur.Line >= i && cur.Line <= last
		if ls[i].Type == t {
			if inside {
				newCur = domain.Pos{Line: len(out)}
			}
			removed += last - i + 1
		} else {
			if inside {
				newCur = domain.Pos{Line: len(out) + cur.Line - i, Column: cur.Column}
			}
			out = append(out, ls[i:last+1]...)
		}
		i = last + 1
	}
	if removed == 0 {
		return nil
	}
	if len(out) == 0 {
		out = domain.NewDocument().Lines
	}
	e.doc.Lines = out
	e.doc.Mark = nil
	e.doc.Cursor = domain.ClampPos(newCur, out)
	e.commit(c, undo.KindOther)
	e.log.Debug("removed elements", "type", t.String(), "lines", removed)
	return nil
}
