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

import "goscreenwriter/internal/domain"

// Capture holds the pre-edit state of a pending record. Begin one before
// mutating the document and Finish it afterwards.
type Capture struct {
	strategy Strategy
	cursor   domain.Pos
	start    int
	// tail is the number of lines after the localized scope; they must not
	// change during the edit.
	tail   int
	before []domain.Line
}

// BeginLocalized captures lines[start:start+count]. The edit may change any
// line in that scope but nothing before or after it.
func BeginLocalized(doc *domain.Document, start, count int) *Capture {
	if start < 0 {
		start = 0
	}
	if start+count > len(doc.Lines) {
		count = len(doc.Lines) - start
	}
	return &Capture{
		strategy: Localized,
		cursor:   doc.Cursor,
		start:    start,
		tail:     len(doc.Lines) - start - count,
		before:   domain.CloneLines(doc.Lines[start : start+count]),
	}
}

// BeginDiff captures the whole document; Finish stores only the span that
// differs.
func BeginDiff(doc *domain.Document) *Capture {
	return &Capture{strategy: Diff, cursor: doc.Cursor, before: domain.CloneLines(doc.Lines)}
}

// BeginFull captures the whole document and stores it unreduced.
func BeginFull(doc *domain.Document) *Capture {
	return &Capture{strategy: Full, cursor: doc.Cursor, before: domain.CloneLines(doc.Lines)}
}

// Finish builds the record for the edit made since the capture began.
func (c *Capture) Finish(doc *domain.Document, kind Kind) Record {
	r := Record{Kind: kind, Strategy: c.strategy, CursorBefore: c.cursor, CursorAfter: doc.Cursor}
	switch c.strategy {
	case Localized:
		afterCount := len(doc.Lines) - c.start - c.tail
		if afterCount < 0 {
			// the edit reached past its scope; callers must widen it
			afterCount = 0
		}
		r.Start = c.start
		r.Before = Compact(c.before)
		r.After = Compact(doc.Lines[c.start : c.start+afterCount])
	case Diff:
		a, b := c.before, doc.Lines
		pre := 0
		for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
			pre++
		}
		suf := 0
		for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
			suf++
		}
		r.Start = pre
		r.Before = Compact(a[pre : len(a)-suf])
		r.After = Compact(b[pre : len(b)-suf])
	default:
		r.Start = 0
		r.Before = Compact(c.before)
		r.After = Compact(doc.Lines)
	}
	return r
}
