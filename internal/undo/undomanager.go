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
	"fmt"

	"goscreenwriter/internal/domain"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Kind classifies an edit for merging.
type Kind int

const (
	// KindOther never merges.
	KindOther Kind = iota
	InsertSpace
	InsertNonSpace
	DeleteForward
	DeleteBackward
)

func (k Kind) String() string {
	switch k {
	case InsertSpace:
		return "insert-space"
	case InsertNonSpace:
		return "insert-nonspace"
	case DeleteForward:
		return "delete-forward"
	case DeleteBackward:
		return "delete-backward"
	default:
		return "other"
	}
}

// Strategy tells how a record's snapshots were captured.
type Strategy int

const (
	Localized Strategy = iota
	Diff
	Full
)

func (s Strategy) String() string {
	switch s {
	case Localized:
		return "localized"
	case Diff:
		return "diff"
	default:
		return "full"
	}
}

// Record is one reversible edit: Before is replaced by After at line Start.
type Record struct {
	Kind         Kind
	Strategy     Strategy
	CursorBefore domain.Pos
	CursorAfter  domain.Pos
	Start        int
	Before       Blob
	After        Blob
}

// Size returns the bytes the record accounts for against the ceiling.
func (r *Record) Size() int { return r.Before.Size() + r.After.Size() }

// Config controls the memory ceiling.
type Config struct {
	// MaxBytes caps the total snapshot size; the oldest records are evicted
	// when it is exceeded.
	MaxBytes int
}

// History is a linear undo/redo list with a current position: records[:cur]
// are applied, records[cur:] form the redo branch. It is not safe for
// concurrent use.
type History struct {
	cfg        Config
	records    []*Record
	cur        int
	totalBytes int
}

func NewHistory(cfg Config) *History {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	return &History{cfg: cfg}
}

func mergeable(last, next Kind) bool {
	switch next {
	case InsertSpace:
		return last == InsertNonSpace || last == InsertSpace
	case InsertNonSpace:
		return last == InsertNonSpace
	case DeleteForward, DeleteBackward:
		return last == next
	}
	return false
}

// Add appends r, or folds it into the newest record when both belong to one
// typing or deletion run. Any redo branch is discarded.
func (h *History) Add(r Record) {
	if h.cur == len(h.records) && h.cur > 0 {
		last := h.records[h.cur-1]
		if last.Strategy == Localized && r.Strategy == Localized &&
			mergeable(last.Kind, r.Kind) &&
			r.CursorBefore == last.CursorAfter &&
			r.Start == last.Start &&
			r.Before.Count == last.After.Count {
			h.totalBytes -= last.Size()
			last.After = r.After
			last.CursorAfter = r.CursorAfter
			last.Kind = r.Kind
			h.totalBytes += last.Size()
			h.evict()
			return
		}
	}
	for _, dropped := range h.records[h.cur:] {
		h.totalBytes -= dropped.Size()
	}
	h.records = append(h.records[:h.cur], &r)
	h.cur = len(h.records)
	h.totalBytes += r.Size()
	h.evict()
}

// evict drops records from the head until the ceiling holds, always keeping
// the newest one.
func (h *History) evict() {
	for h.totalBytes > h.cfg.MaxBytes && len(h.records) > 1 {
		h.totalBytes -= h.records[0].Size()
		h.records[0] = nil
		h.records = h.records[1:]
		if h.cur > 0 {
			h.cur--
		}
	}
}

func apply(doc *domain.Document, start, remove int, b Blob, cursor domain.Pos) error {
	ls, err := b.Lines()
	if err != nil {
		return err
	}
	if err := doc.ReplaceLines(start, remove, ls); err != nil {
		return fmt.Errorf("apply undo record: %w", err)
	}
	doc.Cursor = cursor
	doc.Mark = nil
	doc.ClampCursor()
	return nil
}

// Undo reverts the record before the current position.
func (h *History) Undo(doc *domain.Document) error {
	if h.cur == 0 {
		return ErrNothingToUndo
	}
	r := h.records[h.cur-1]
	if err := apply(doc, r.Start, r.After.Count, r.Before, r.CursorBefore); err != nil {
		return err
	}
	h.cur--
	return nil
}

// Redo re-applies the record at the current position.
func (h *History) Redo(doc *domain.Document) error {
	if h.cur == len(h.records) {
		return ErrNothingToRedo
	}
	r := h.records[h.cur]
	if err := apply(doc, r.Start, r.Before.Count, r.After, r.CursorAfter); err != nil {
		return err
	}
	h.cur++
	return nil
}

func (h *History) CanUndo() bool { return h.cur > 0 }
func (h *History) CanRedo() bool { return h.cur < len(h.records) }

// Clear forgets every record.
func (h *History) Clear() {
	h.records = nil
	h.cur = 0
	h.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, records int, current int) {
	return h.totalBytes, len(h.records), h.cur
}

// Last returns the newest applied record, if any.
func (h *History) Last() (Record, bool) {
	if h.cur == 0 {
		return Record{}, false
	}
	return *h.records[h.cur-1], true
}
