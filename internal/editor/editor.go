/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the command layer over a screenplay document. Every
// mutation goes through Execute, is re-wrapped in place and recorded in the
// undo history; pagination is recomputed lazily.
package editor

import (
	"fmt"
	"log/slog"
	"time"

	"goscreenwriter/internal/domain"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pagination"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
	"goscreenwriter/internal/undo"
)

// Options configures an Editor. Zero values select defaults.
type Options struct {
	Format *domain.Format
	// UndoMaxBytes caps the memory held by the undo history.
	UndoMaxBytes int
	// PaginateInterval is the minimum time between two throttled pagination
	// runs. Forced runs ignore it.
	PaginateInterval time.Duration
	// Now is the clock used for throttling.
	Now    func() time.Time
	Logger *slog.Logger
}

// Editor owns one document and its history. It is not safe for concurrent use.
type Editor struct {
	doc    *domain.Document
	format domain.Format
	hist   *undo.History
	log    *slog.Logger

	pages        pagination.Result
	pagesStale   bool
	lastPaginate time.Time
	interval     time.Duration
	now          func() time.Time

	clipboard []domain.Line
	modified  bool
}

// New returns an editor holding an empty screenplay.
func New(opts Options) *Editor {
	return newEditor(domain.NewDocument(), opts)
}

func newEditor(doc *domain.Document, opts Options) *Editor {
	f := domain.DefaultFormat()
	if opts.Format != nil {
		f = *opts.Format
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PaginateInterval <= 0 {
		opts.PaginateInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("editor")
	}
	e := &Editor{
		doc:      doc,
		format:   f,
		hist:     undo.NewHistory(undo.Config{MaxBytes: opts.UndoMaxBytes}),
		log:      opts.Logger,
		interval: opts.PaginateInterval,
		now:      opts.Now,
	}
	textlayout.RewrapAll(e.doc, &e.format)
	e.doc.ClampCursor()
	e.paginate()
	return e
}

// Load decodes a serialized screenplay. The header must be valid; record
// level problems and repairs are returned as warnings.
func Load(text string, opts Options) (*Editor, []script.Error, error) {
	ls, warns, err := script.Decode(text)
	if err != nil {
		return nil, nil, fmt.Errorf("load screenplay: %w", err)
	}
	ls, fixes := script.Repair(ls)
	warns = append(warns, fixes...)
	e := newEditor(&domain.Document{Lines: ls}, opts)
	for _, w := range warns {
		e.log.Debug("load warning", slog.String("warning", w.String()))
	}
	e.log.Debug("screenplay loaded", slog.Int("lines", len(e.doc.Lines)), slog.Int("pages", e.pages.PageCount()))
	return e, warns, nil
}

// Serialize returns the file form of the document.
func (e *Editor) Serialize() string { return script.Encode(e.doc.Lines) }

// Lines exposes the current lines. Callers must not modify them.
func (e *Editor) Lines() []domain.Line { return e.doc.Lines }

// Cursor returns the cursor position.
func (e *Editor) Cursor() domain.Pos { return e.doc.Cursor }

// SetCursor moves the cursor, clamped to the buffer. The mark is kept.
func (e *Editor) SetCursor(p domain.Pos) { e.doc.Cursor = domain.ClampPos(p, e.doc.Lines) }

// Mark returns the selection mark, if set.
func (e *Editor) Mark() (domain.Pos, bool) {
	if e.doc.Mark == nil {
		return domain.Pos{}, false
	}
	return domain.ClampPos(*e.doc.Mark, e.doc.Lines), true
}

// Selection returns the normalized selection.
func (e *Editor) Selection() (domain.Pos, domain.Pos, bool) { return e.doc.Selection() }

// Format returns the active format.
func (e *Editor) Format() domain.Format { return e.format }

// Modified reports whether the document changed since the last MarkSaved.
func (e *Editor) Modified() bool { return e.modified }

// MarkSaved clears the modified flag.
func (e *Editor) MarkSaved() { e.modified = false }

// CanUndo reports whether Undo would do anything.
func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }

// HistoryStats returns the undo history's byte total, record count and position.
func (e *Editor) HistoryStats() (int, int, int) { return e.hist.Stats() }

// Clipboard returns the lines held by the last Cut or Copy.
func (e *Editor) Clipboard() []domain.Line { return domain.CloneLines(e.clipboard) }

// ClipboardText returns the clipboard as plain text with newlines between
// paragraphs.
func (e *Editor) ClipboardText() string { return linesText(e.clipboard) }

func (e *Editor) paginate() {
	e.pages = pagination.Paginate(e.doc.Lines, &e.format)
	e.pagesStale = false
	e.lastPaginate = e.now()
}

// MaybePaginate recomputes pages if they are stale and the throttle interval
// has passed. It reports whether it ran.
func (e *Editor) MaybePaginate() bool {
	if !e.pagesStale || e.now().Sub(e.lastPaginate) < e.interval {
		return false
	}
	e.paginate()
	return true
}

// Pages returns an up-to-date pagination, bypassing the throttle.
func (e *Editor) Pages() pagination.Result {
	if e.pagesStale {
		e.paginate()
	}
	return e.pages
}

// PagesStale reports whether the cached pagination lags behind the text.
func (e *Editor) PagesStale() bool { return e.pagesStale }

// PageCount returns the up-to-date number of pages.
func (e *Editor) PageCount() int { return e.Pages().PageCount() }

// PageForLine returns the up-to-date 1-based page of line i.
func (e *Editor) PageForLine(i int) int { return e.Pages().PageForLine(i) }

// LineForPage returns the first line of 1-based page n.
func (e *Editor) LineForPage(n int) int { return e.Pages().LineForPage(n) }

// SetFormat switches to f and re-wraps the whole document as one undoable step.
func (e *Editor) SetFormat(f domain.Format) {
	c := undo.BeginFull(e.doc)
	e.format = f
	textlayout.RewrapAll(e.doc, &e.format)
	e.doc.ClampCursor()
	e.commit(c, undo.KindOther)
}

// commit records the edit begun with c and marks derived state stale.
func (e *Editor) commit(c *undo.Capture, kind undo.Kind) {
	e.hist.Add(c.Finish(e.doc, kind))
	e.changed()
}

func (e *Editor) changed() {
	e.modified = true
	e.pagesStale = true
	e.MaybePaginate()
}
