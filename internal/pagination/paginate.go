/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pagination splits a wrapped screenplay into pages following the
// usual orphan-control conventions: headings never end a page, short action
// fragments and speeches are pushed forward, and continued speeches leave
// room for a "(MORE)" label.
//
// All vertical quantities are in tenths of a line.
package pagination

import (
	"sort"

	"goscreenwriter/internal/domain"
)

const (
	tenth        = 10
	minPageSpace = 5 * tenth
	// continuedLines is reserved on a page that does not start a scene.
	continuedLines = 2 * tenth
	// moreLines is reserved on a page that continues a speech.
	moreLines = 1 * tenth
)

// Result holds the last line index of every page. Breaks are the adjusted
// boundaries; Raw records where the budget ran out before any retraction
// and is kept for diagnostics. Breaks is strictly increasing and both end
// with len(lines)-1.
type Result struct {
	Breaks []int
	Raw    []int
}

// PageCount returns the number of pages.
func (r Result) PageCount() int { return len(r.Breaks) }

// PageForLine returns the 1-based page holding line i.
func (r Result) PageForLine(i int) int {
	if len(r.Breaks) == 0 {
		return 1
	}
	p := sort.SearchInts(r.Breaks, i)
	if p >= len(r.Breaks) {
		p = len(r.Breaks) - 1
	}
	return p + 1
}

// LineForPage returns the first line of 1-based page n. n is clamped to the
// valid page range.
func (r Result) LineForPage(n int) int {
	if n <= 1 || len(r.Breaks) == 0 {
		return 0
	}
	if n > len(r.Breaks) {
		n = len(r.Breaks)
	}
	return r.Breaks[n-2] + 1
}

// PageBounds returns the first and last line of page n.
func (r Result) PageBounds(n int) (int, int) {
	if len(r.Breaks) == 0 {
		return 0, -1
	}
	if n < 1 {
		n = 1
	}
	if n > len(r.Breaks) {
		n = len(r.Breaks)
	}
	return r.LineForPage(n), r.Breaks[n-1]
}

// Equal reports whether two results describe the same pages.
func (r Result) Equal(o Result) bool {
	if len(r.Breaks) != len(o.Breaks) || len(r.Raw) != len(o.Raw) {
		return false
	}
	for i := range r.Breaks {
		if r.Breaks[i] != o.Breaks[i] {
			return false
		}
	}
	for i := range r.Raw {
		if r.Raw[i] != o.Raw[i] {
			return false
		}
	}
	return true
}

func isSpeech(t domain.ElementType) bool { return t == domain.Dialogue || t == domain.Paren }

// NeedsMore reports whether a page ending at line i interrupts a speech.
func NeedsMore(ls []domain.Line, i int) bool {
	if i < 0 || i >= len(ls)-1 {
		return false
	}
	return isSpeech(ls[i].Type) && isSpeech(ls[i+1].Type)
}

// IsFirstLineOfScene reports whether line i opens a scene, so a page starting
// there needs no "CONTINUED:" label.
func IsFirstLineOfScene(ls []domain.Line, i int) bool {
	if i == 0 {
		return true
	}
	if i < 0 || i >= len(ls) {
		return false
	}
	return ls[i].Type == domain.Scene && ls[i-1].Break == domain.BreakLast
}

type pager struct {
	ls        []domain.Line
	f         *domain.Format
	lastBreak int
}

// removeDangling walks back over one trailing element of type t. The cut
// never moves earlier than lastBreak+2.
func (p *pager) removeDangling(line int, t domain.ElementType) int {
	start := line
	for line > p.lastBreak+2 && p.ls[line].Type == t &&
		(line == start || p.ls[line].Break != domain.BreakLast) {
		line--
	}
	return line
}

func (p *pager) budget(i int) int {
	b := p.f.LinesPerPage * tenth
	if i != 0 {
		b -= p.f.HeaderLines * tenth
		if !IsFirstLineOfScene(p.ls, i) {
			b -= continuedLines
		}
		if NeedsMore(p.ls, i-1) {
			b -= moreLines
		}
	}
	if b < minPageSpace {
		b = minPageSpace
	}
	return b
}

// fill advances i to the last line that fits under budget.
func (p *pager) fill(i, budget int) int {
	n := len(p.ls)
	used := tenth
	for i < n-1 {
		used += tenth
		if p.ls[i].Break == domain.BreakLast {
			used += p.f.Spec(p.ls[i+1].Type).SpacingBefore
		} else {
			used += p.f.Spec(p.ls[i].Type).SpacingBetween
		}
		if used > budget {
			break
		}
		i++
	}
	return i
}

// retract moves a raw page end i back so that no heading, short action
// fragment or unprotected speech is left at the bottom.
func (p *pager) retract(i int) int {
	ls := p.ls
	switch ls[i].Type {
	case domain.Scene:
		i = p.removeDangling(i, domain.Scene)
	case domain.Shot:
		i = p.removeDangling(i, domain.Shot)
		i = p.removeDangling(i, domain.Scene)
	case domain.Action:
		if ls[i].Break != domain.BreakLast {
			first := domain.ElementFirst(ls, i)
			if first > p.lastBreak+1 {
				if i-first+1 < p.f.MinActionLines {
					i = first - 1
				}
				i = p.removeDangling(i, domain.Scene)
			}
		}
	case domain.Character:
		i = p.removeDangling(i, domain.Character)
		i = p.removeDangling(i, domain.Scene)
	case domain.Dialogue, domain.Paren:
		if NeedsMore(ls, i) {
			i = p.retractSpeech(i)
		}
	}
	return i
}

func (p *pager) retractSpeech(i int) int {
	ls := p.ls
	cutDialogue, cutParen := false, false
	for {
		old := i
		switch ls[i].Type {
		case domain.Paren:
			i = p.removeDangling(i, domain.Paren)
			cutParen = true
		case domain.Dialogue:
			if cutParen {
				return i
			}
			first := domain.ElementFirst(ls, i)
			if first <= p.lastBreak+1 {
				// the speech began on this page's first line; keep room for (MORE)
				return i - 1
			}
			reserve := !cutDialogue
			need := p.f.MinDialogueLines
			if reserve {
				need++
			}
			if i-first+1 < need {
				i = first - 1
				cutDialogue = true
			} else {
				if reserve {
					i--
				}
				return i
			}
		case domain.Character:
			i = p.removeDangling(i, domain.Character)
			return p.removeDangling(i, domain.Scene)
		default:
			return i
		}
		if i == old {
			return i
		}
	}
}

// Paginate computes page boundaries for ls. It always terminates and every
// page holds at least one line.
func Paginate(ls []domain.Line, f *domain.Format) Result {
	var r Result
	n := len(ls)
	if n == 0 {
		return r
	}
	p := &pager{ls: ls, f: f, lastBreak: -1}
	i := 0
	for {
		i = p.fill(i, p.budget(i))
		if i >= n-1 {
			r.Breaks = append(r.Breaks, n-1)
			r.Raw = append(r.Raw, n-1)
			return r
		}
		r.Raw = append(r.Raw, i)
		i = p.retract(i)
		if i < p.lastBreak+1 {
			i = p.lastBreak + 1
		}
		r.Breaks = append(r.Breaks, i)
		p.lastBreak = i
		i++
	}
}
