/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"errors"
	"strings"
	"testing"

	"goscreenwriter/internal/domain"
)

func docOf(texts ...string) *domain.Document {
	d := &domain.Document{}
	for _, s := range texts {
		d.Lines = append(d.Lines, domain.Line{Text: s, Type: domain.Action, Break: domain.BreakLast})
	}
	return d
}

// typeAt mimics a one-character insert on a single-line paragraph.
func typeAt(h *History, d *domain.Document, r rune) {
	line := d.Cursor.Line
	c := BeginLocalized(d, line, 1)
	rs := []rune(d.Lines[line].Text)
	col := d.Cursor.Column
	rs = append(rs[:col], append([]rune{r}, rs[col:]...)...)
	d.Lines[line].Text = string(rs)
	d.Cursor.Column++
	kind := InsertNonSpace
	if r == ' ' {
		kind = InsertSpace
	}
	h.Add(c.Finish(d, kind))
}

func TestUndoRedoBasic(t *testing.T) {
	h := NewHistory(Config{})
	d := docOf("", "tail")
	orig := domain.CloneLines(d.Lines)
	for _, r := range "hello" {
		typeAt(h, d, r)
	}
	if _, n, _ := h.Stats(); n != 1 {
		t.Fatalf("expected 5 inserts to merge into 1 record, got %d", n)
	}
	if err := h.Undo(d); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !domain.EqualLines(d.Lines, orig) || d.Cursor != (domain.Pos{}) {
		t.Fatalf("undo did not restore: %+v cursor %+v", d.Lines, d.Cursor)
	}
	if err := h.Undo(d); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if err := h.Redo(d); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if d.Lines[0].Text != "hello" || d.Cursor.Column != 5 {
		t.Fatalf("redo mismatch: %+v cursor %+v", d.Lines, d.Cursor)
	}
	if err := h.Redo(d); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestMergeStopsAtWordBoundary(t *testing.T) {
	h := NewHistory(Config{})
	d := docOf("")
	for _, r := range "ab  cd" {
		typeAt(h, d, r)
	}
	// "ab" + "  " merge, "cd" starts a new record
	if _, n, _ := h.Stats(); n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
	if err := h.Undo(d); err != nil {
		t.Fatal(err)
	}
	if d.Lines[0].Text != "ab  " {
		t.Fatalf("got %q", d.Lines[0].Text)
	}
}

func TestMergeRequiresContiguousCursor(t *testing.T) {
	h := NewHistory(Config{})
	d := docOf("xyz")
	typeAt(h, d, 'a')
	d.Cursor.Column = 3
	typeAt(h, d, 'b')
	if _, n, _ := h.Stats(); n != 2 {
		t.Fatalf("expected 2 records after a cursor jump, got %d", n)
	}
}

func TestNewEditDropsRedoBranch(t *testing.T) {
	h := NewHistory(Config{})
	d := docOf("")
	typeAt(h, d, 'a')
	typeAt(h, d, ' ')
	typeAt(h, d, 'b')
	if err := h.Undo(d); err != nil {
		t.Fatal(err)
	}
	typeAt(h, d, 'c')
	if h.CanRedo() {
		t.Fatalf("redo branch should be discarded")
	}
	if _, n, cur := h.Stats(); n != 2 || cur != 2 {
		t.Fatalf("unexpected history shape: n=%d cur=%d", n, cur)
	}
	if d.Lines[0].Text != "a c" {
		t.Fatalf("got %q", d.Lines[0].Text)
	}
}

func TestEvictionKeepsNewest(t *testing.T) {
	h := NewHistory(Config{MaxBytes: 10})
	d := docOf("")
	for i := 0; i < 8; i++ {
		c := BeginFull(d)
		d.Lines[0].Text += "word "
		d.Cursor.Column = d.Lines[0].Len()
		h.Add(c.Finish(d, KindOther))
	}
	total, n, cur := h.Stats()
	if n != 1 || cur != 1 {
		t.Fatalf("expected only the newest record to survive, n=%d cur=%d", n, cur)
	}
	if total <= 0 {
		t.Fatalf("total bytes should account for the survivor")
	}
	if err := h.Undo(d); err != nil {
		t.Fatal(err)
	}
	if d.Lines[0].Text != strings.Repeat("word ", 7) {
		t.Fatalf("got %q", d.Lines[0].Text)
	}
}

func TestDiffCaptureStoresMiddleSpan(t *testing.T) {
	h := NewHistory(Config{})
	d := docOf("a", "b", "c", "d", "e")
	before := domain.CloneLines(d.Lines)
	c := BeginDiff(d)
	_ = d.ReplaceLines(2, 1, []domain.Line{{Text: "X", Type: domain.Action, Break: domain.BreakLast}, {Text: "Y", Type: domain.Action, Break: domain.BreakLast}})
	r := c.Finish(d, KindOther)
	if r.Start != 2 || r.Before.Count != 1 || r.After.Count != 2 {
		t.Fatalf("unexpected diff span: start=%d before=%d after=%d", r.Start, r.Before.Count, r.After.Count)
	}
	h.Add(r)
	after := domain.CloneLines(d.Lines)
	if err := h.Undo(d); err != nil || !domain.EqualLines(d.Lines, before) {
		t.Fatalf("undo diff: %v %+v", err, d.Lines)
	}
	if err := h.Redo(d); err != nil || !domain.EqualLines(d.Lines, after) {
		t.Fatalf("redo diff: %v %+v", err, d.Lines)
	}
}

func TestCompactRoundTripAndCompression(t *testing.T) {
	var ls []domain.Line
	for i := 0; i < 50; i++ {
		ls = append(ls, domain.Line{Text: "The same line over and over", Type: domain.Dialogue, Break: domain.BreakSpace})
	}
	ls[len(ls)-1].Break = domain.BreakLast
	b := Compact(ls)
	if !b.Compressed {
		t.Fatalf("repetitive snapshot should compress")
	}
	got, err := b.Lines()
	if err != nil || !domain.EqualLines(got, ls) {
		t.Fatalf("round trip failed: %v", err)
	}
	small := Compact([]domain.Line{{Text: "x", Type: domain.Scene, Break: domain.BreakLast}})
	if small.Compressed {
		t.Fatalf("tiny snapshot should stay plain")
	}
	if _, err := (Blob{Compressed: true, Count: 1, Data: []byte("junk")}).Lines(); !errors.Is(err, ErrCorruptBlob) {
		t.Fatalf("expected ErrCorruptBlob, got %v", err)
	}
}
