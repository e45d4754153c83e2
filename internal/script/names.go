/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"sort"
	"strings"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/textlayout"
)

// ElementText reconstitutes the text of the element starting at first.
// Forced breaks become newlines.
func ElementText(ls []domain.Line, first int) string {
	return textlayout.ParagraphText(ls, first, domain.ElementLast(ls, first))
}

// CueName strips extensions like "(V.O.)" or "(CONT'D)" from a character cue.
func CueName(cue string) string {
	if i := strings.IndexByte(cue, '('); i >= 0 {
		cue = cue[:i]
	}
	return strings.ToUpper(strings.Join(strings.Fields(cue), " "))
}

// Scenes lists the scene headings in reading order, numbered from 1.
func Scenes(ls []domain.Line) []SceneInfo {
	var out []SceneInfo
	for i := 0; i < len(ls); i = domain.ElementLast(ls, i) + 1 {
		if ls[i].Type != domain.Scene {
			continue
		}
		heading := strings.Join(strings.Fields(ElementText(ls, i)), " ")
		out = append(out, SceneInfo{Number: len(out) + 1, Line: i, Heading: heading})
	}
	return out
}

// Characters lists every speaking character sorted by name.
func Characters(ls []domain.Line) []CharacterInfo {
	byName := map[string]*CharacterInfo{}
	for i := 0; i < len(ls); i = domain.ElementLast(ls, i) + 1 {
		if ls[i].Type != domain.Character {
			continue
		}
		name := CueName(ElementText(ls, i))
		if name == "" {
			continue
		}
		ci, ok := byName[name]
		if !ok {
			ci = &CharacterInfo{Name: name, FirstLine: i}
			byName[name] = ci
		}
		ci.Speeches++
	}
	out := make([]CharacterInfo, 0, len(byName))
	for _, ci := range byName {
		out = append(out, *ci)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// SceneAt returns the scene heading that governs line i, if any.
func SceneAt(ls []domain.Line, i int) (SceneInfo, bool) {
	var cur SceneInfo
	found := false
	for _, s := range Scenes(ls) {
		if s.Line > i {
			break
		}
		cur, found = s, true
	}
	return cur, found
}
