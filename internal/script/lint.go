/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/textlayout"
)

func isSpeech(t domain.ElementType) bool { return t == domain.Dialogue || t == domain.Paren }

func elementEmpty(ls []domain.Line, first, last int) bool {
	for i := first; i <= last; i++ {
		if strings.TrimSpace(ls[i].Text) != "" {
			return false
		}
	}
	return true
}

// checkElement reports adjacency and emptiness problems of the element
// starting at first.
func checkElement(ls []domain.Line, first int) (string, bool) {
	last := domain.ElementLast(ls, first)
	t := ls[first].Type
	if elementEmpty(ls, first, last) {
		return fmt.Sprintf("empty %s element", t), true
	}
	var prev, next domain.ElementType = -1, -1
	if first > 0 {
		prev = ls[first-1].Type
	}
	if last < len(ls)-1 {
		next = ls[last+1].Type
	}
	switch t {
	case domain.Character:
		if !isSpeech(next) {
			return "character cue without dialogue", true
		}
	case domain.Dialogue, domain.Paren:
		if prev != domain.Character && !isSpeech(prev) {
			return fmt.Sprintf("%s without a character cue", t), true
		}
		if t == domain.Paren && next != domain.Dialogue {
			return "parenthetical not followed by dialogue", true
		}
	}
	return "", false
}

// FindNextError scans from line from onwards and returns the first
// formatting problem: an empty element, an impossible element sequence, or
// a line wider than its type allows.
func FindNextError(ls []domain.Line, f *domain.Format, from int) (Issue, bool) {
	if from < 0 {
		from = 0
	}
	para := 0
	if from < len(ls) {
		para = from - domain.ParagraphFirst(ls, from)
	}
	for i := from; i < len(ls); i++ {
		if i == 0 || ls[i-1].Break == domain.BreakLast {
			if reason, bad := checkElement(ls, i); bad {
				return Issue{Line: i, Reason: reason}, true
			}
		}
		if i > from && ls[i-1].Break.EndsParagraph() {
			para = 0
		}
		l := ls[i]
		if w := textlayout.LineWidth(f.Spec(l.Type), l.Type, para); textlayout.VisibleCells(l.Text) > w {
			return Issue{Line: i, Reason: fmt.Sprintf("line is %d columns wide, %s allows %d", textlayout.VisibleCells(l.Text), l.Type, w)}, true
		}
		para++
	}
	return Issue{}, false
}

// Lint collects every problem in ls.
func Lint(ls []domain.Line, f *domain.Format) []Issue {
	var out []Issue
	for from := 0; from < len(ls); {
		is, ok := FindNextError(ls, f, from)
		if !ok {
			break
		}
		out = append(out, is)
		from = is.Line + 1
	}
	return out
}
