/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// Lookup and range errors returned by model operations.
var (
	ErrUnknownObject = errors.New("unknown object")
	ErrInvalidRange  = errors.New("invalid range")
)

// Document is an ordered sequence of lines plus the cursor and an optional
// selection mark. It is not safe for concurrent use.
type Document struct {
	Lines  []Line
	Cursor Pos
	Mark   *Pos
}

// NewDocument returns a document holding one empty scene heading.
func NewDocument() *Document {
	return &Document{Lines: []Line{{Type: Scene, Break: BreakLast}}}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Lines: CloneLines(d.Lines), Cursor: d.Cursor}
	if d.Mark != nil {
		m := *d.Mark
		c.Mark = &m
	}
	return c
}

// CloneLines copies a line slice. Line values are immutable strings so a
// shallow element copy is enough.
func CloneLines(ls []Line) []Line {
	out := make([]Line, len(ls))
	copy(out, ls)
	return out
}

func (d *Document) checkLine(line int) error {
	if line < 0 || line >= len(d.Lines) {
		return fmt.Errorf("line %d of %d: %w", line, len(d.Lines), ErrUnknownObject)
	}
	return nil
}

// ClampPos returns p moved to the nearest valid position.
func ClampPos(p Pos, ls []Line) Pos {
	if len(ls) == 0 {
		return Pos{}
	}
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(ls) {
		p.Line = len(ls) - 1
	}
	if p.Column < 0 {
		p.Column = 0
	}
	if n := ls[p.Line].Len(); p.Column > n {
		p.Column = n
	}
	return p
}

// ClampCursor clamps the cursor and the mark to the current buffer.
func (d *Document) ClampCursor() {
	d.Cursor = ClampPos(d.Cursor, d.Lines)
	if d.Mark != nil {
		m := ClampPos(*d.Mark, d.Lines)
		d.Mark = &m
	}
}

// Selection returns the normalized selection between mark and cursor.
// ok is false when no mark is set or the range is empty.
func (d *Document) Selection() (start, end Pos, ok bool) {
	if d.Mark == nil {
		return Pos{}, Pos{}, false
	}
	a := ClampPos(*d.Mark, d.Lines)
	b := ClampPos(d.Cursor, d.Lines)
	if b.Less(a) {
		a, b = b, a
	}
	return a, b, a != b
}

// ElementFirst returns the index of the first line of the element containing line.
func (d *Document) ElementFirst(line int) int { return ElementFirst(d.Lines, line) }

// ElementLast returns the index of the last line of the element containing line.
func (d *Document) ElementLast(line int) int { return ElementLast(d.Lines, line) }

// ElementFirst scans back to the element start; cost is bounded by the element size.
func ElementFirst(ls []Line, line int) int {
	for line > 0 && ls[line-1].Break != BreakLast {
		line--
	}
	return line
}

// ElementLast scans forward to the element end.
func ElementLast(ls []Line, line int) int {
	for line < len(ls)-1 && ls[line].Break != BreakLast {
		line++
	}
	return line
}

// ParagraphFirst scans back to the paragraph start.
func ParagraphFirst(ls []Line, line int) int {
	for line > 0 && !ls[line-1].Break.EndsParagraph() {
		line--
	}
	return line
}

// ParagraphLast scans forward to the paragraph end.
func ParagraphLast(ls []Line, line int) int {
	for line < len(ls)-1 && !ls[line].Break.EndsParagraph() {
		line++
	}
	return line
}

// ElementBounds returns the first and last line of the element containing line.
func (d *Document) ElementBounds(line int) (int, int, error) {
	if err := d.checkLine(line); err != nil {
		return 0, 0, err
	}
	return ElementFirst(d.Lines, line), ElementLast(d.Lines, line), nil
}

// ParagraphBounds returns the first and last line of the paragraph containing line.
func (d *Document) ParagraphBounds(line int) (int, int, error) {
	if err := d.checkLine(line); err != nil {
		return 0, 0, err
	}
	return ParagraphFirst(d.Lines, line), ParagraphLast(d.Lines, line), nil
}

// IsFirstLineOfElement reports whether line starts its element.
func (d *Document) IsFirstLineOfElement(line int) bool {
	return line == 0 || d.Lines[line-1].Break == BreakLast
}

// IsLastLineOfElement reports whether line ends its element.
func (d *Document) IsLastLineOfElement(line int) bool {
	return d.Lines[line].Break == BreakLast
}

// IsOnlyLineOfElement reports whether the element of line has a single line.
func (d *Document) IsOnlyLineOfElement(line int) bool {
	return d.IsFirstLineOfElement(line) && d.IsLastLineOfElement(line)
}

// SplitLineAt divides a line in two at the given rune column. The first part
// ends with a forced break, the second inherits the original break and type.
func (d *Document) SplitLineAt(line, col int) error {
	if err := d.checkLine(line); err != nil {
		return err
	}
	ln := d.Lines[line]
	r := []rune(ln.Text)
	if col < 0 || col > len(r) {
		return fmt.Errorf("split column %d on line %d: %w", col, line, ErrInvalidRange)
	}
	tail := Line{Text: string(r[col:]), Type: ln.Type, Break: ln.Break}
	d.Lines[line] = Line{Text: string(r[:col]), Type: ln.Type, Break: BreakForced}
	d.Lines = append(d.Lines, Line{})
	copy(d.Lines[line+2:], d.Lines[line+1:])
	d.Lines[line+1] = tail
	return nil
}

// JoinLines merges line and line+1. The joined line takes the second line's
// break; when the second line started another element, the rest of that
// element is retyped to the first line's type. It returns the rune column
// where the second line's text begins.
func (d *Document) JoinLines(line int) (int, error) {
	if err := d.checkLine(line); err != nil {
		return 0, err
	}
	if line+1 >= len(d.Lines) {
		return 0, fmt.Errorf("join past last line %d: %w", line, ErrInvalidRange)
	}
	first := d.Lines[line]
	next := d.Lines[line+1]
	col := first.Len()
	if first.Break == BreakLast {
		d.SetElementType(line+1, first.Type)
		next = d.Lines[line+1]
	}
	d.Lines[line] = Line{Text: first.Text + next.Text, Type: first.Type, Break: next.Break}
	d.Lines = append(d.Lines[:line+1], d.Lines[line+2:]...)
	return col, nil
}

// SetElementType retypes the lines from line through the end of its element.
func (d *Document) SetElementType(line int, t ElementType) {
	for i := line; i < len(d.Lines); i++ {
		d.Lines[i].Type = t
		if d.Lines[i].Break == BreakLast {
			return
		}
	}
}

// ReplaceLines swaps lines[start:start+count] for repl.
func (d *Document) ReplaceLines(start, count int, repl []Line) error {
	if start < 0 || count < 0 || start+count > len(d.Lines) {
		return fmt.Errorf("replace [%d,+%d) of %d: %w", start, count, len(d.Lines), ErrInvalidRange)
	}
	out := make([]Line, 0, len(d.Lines)-count+len(repl))
	out = append(out, d.Lines[:start]...)
	out = append(out, repl...)
	out = append(out, d.Lines[start+count:]...)
	d.Lines = out
	return nil
}

// EnsureLastBreak forces the final line to terminate its element and returns
// true if it had to change anything.
func (d *Document) EnsureLastBreak() bool {
	if len(d.Lines) == 0 {
		d.Lines = []Line{{Type: Scene, Break: BreakLast}}
		return true
	}
	n := len(d.Lines) - 1
	if d.Lines[n].Break != BreakLast {
		d.Lines[n].Break = BreakLast
		return true
	}
	return false
}

// UnifyElementTypes makes every element carry its first line's type. It
// returns the indices of lines that were retyped.
func (d *Document) UnifyElementTypes() []int {
	var fixed []int
	cur := Action
	for i := range d.Lines {
		if i == 0 || d.Lines[i-1].Break == BreakLast {
			cur = d.Lines[i].Type
			continue
		}
		if d.Lines[i].Type != cur {
			d.Lines[i].Type = cur
			fixed = append(fixed, i)
		}
	}
	return fixed
}

// EqualLines reports whether two line sequences are identical.
func EqualLines(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
