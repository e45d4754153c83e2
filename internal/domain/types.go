/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model of a screenplay: typed lines, the
// way each line joins the next one, and the document that owns them.

import "unicode/utf8"

// ElementType is the screenplay element a line belongs to.
type ElementType int

const (
	Scene ElementType = iota
	Action
	Character
	Dialogue
	Paren
	Transition
	Shot
	Note
	ActBreak
)

// ElementTypes lists every type in declaration order.
var ElementTypes = []ElementType{Scene, Action, Character, Dialogue, Paren, Transition, Shot, Note, ActBreak}

var typeNames = [...]string{"scene", "action", "character", "dialogue", "paren", "transition", "shot", "note", "actbreak"}

// typeCodes are the single-byte codes used by the line-oriented text form.
var typeCodes = [...]byte{'S', 'A', 'C', 'D', 'P', 'T', 'H', 'N', 'B'}

func (t ElementType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool { return t >= 0 && int(t) < len(typeNames) }

// Code returns the record code for t.
func (t ElementType) Code() byte {
	if !t.Valid() {
		return typeCodes[Action]
	}
	return typeCodes[t]
}

// ParseTypeCode maps a record code back to an element type.
func ParseTypeCode(c byte) (ElementType, bool) {
	for i, tc := range typeCodes {
		if tc == c {
			return ElementType(i), true
		}
	}
	return Action, false
}

// ParseTypeName maps a lower-case type name (as used in config files) to a type.
func ParseTypeName(s string) (ElementType, bool) {
	for i, n := range typeNames {
		if n == s {
			return ElementType(i), true
		}
	}
	return Action, false
}

// BreakKind describes how a line joins the next one when its paragraph is
// reconstituted into flowing text.
type BreakKind int

const (
	// BreakSpace joins with a single space.
	BreakSpace BreakKind = iota
	// BreakNone joins directly (a word was hard-broken).
	BreakNone
	// BreakForced ends a paragraph inside an element.
	BreakForced
	// BreakLast ends the element.
	BreakLast
)

var breakCodes = [...]byte{'s', 'n', 'f', 'l'}

func (b BreakKind) String() string {
	switch b {
	case BreakSpace:
		return "space"
	case BreakNone:
		return "none"
	case BreakForced:
		return "forced"
	case BreakLast:
		return "last"
	default:
		return "unknown"
	}
}

// Code returns the record code for b.
func (b BreakKind) Code() byte {
	if b < 0 || int(b) >= len(breakCodes) {
		return breakCodes[BreakForced]
	}
	return breakCodes[b]
}

// ParseBreakCode maps a record code back to a break kind.
func ParseBreakCode(c byte) (BreakKind, bool) {
	for i, bc := range breakCodes {
		if bc == c {
			return BreakKind(i), true
		}
	}
	return BreakForced, false
}

// Text returns the characters a break contributes inside a paragraph.
func (b BreakKind) Text() string {
	switch b {
	case BreakSpace:
		return " "
	case BreakForced:
		return "\n"
	default:
		return ""
	}
}

// EndsParagraph reports whether b terminates a paragraph.
func (b BreakKind) EndsParagraph() bool { return b == BreakForced || b == BreakLast }

// Line is one physical line of the screenplay.
type Line struct {
	Text  string
	Type  ElementType
	Break BreakKind
}

// Len returns the length of the line text in runes.
func (l Line) Len() int { return utf8.RuneCountInString(l.Text) }

// Pos addresses a rune column on a line.
type Pos struct {
	Line   int
	Column int
}

// Less orders positions in reading order.
func (p Pos) Less(o Pos) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Style flags for draw records.
type Style uint8

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleUnderline
)

// TypeSpec is the read-only formatting configuration of one element type.
// Spacing values are in tenths of a line.
type TypeSpec struct {
	Indent         int         `json:"indent" yaml:"indent"`
	Width          int         `json:"width" yaml:"width"`
	SpacingBefore  int         `json:"spacing_before" yaml:"spacing_before"`
	SpacingBetween int         `json:"spacing_between" yaml:"spacing_between"`
	Uppercase      bool        `json:"uppercase" yaml:"uppercase"`
	Style          Style       `json:"style" yaml:"style"`
	TabType        ElementType `json:"tab_type" yaml:"tab_type"`
	ShiftTabType   ElementType `json:"shift_tab_type" yaml:"shift_tab_type"`
	EnterType      ElementType `json:"enter_type" yaml:"enter_type"`
}

// Format bundles the type table with the pagination tunables.
// It is passed explicitly to the wrapper and the pagination engine.
type Format struct {
	Types            [len(typeNames)]TypeSpec
	LinesPerPage     int
	HeaderLines      int
	MinActionLines   int
	MinDialogueLines int
}

// Spec returns the configuration for t.
func (f *Format) Spec(t ElementType) TypeSpec {
	if !t.Valid() {
		return f.Types[Action]
	}
	return f.Types[t]
}

// DefaultFormat returns US-letter screenplay defaults: 55 lines per page,
// Courier 12pt columns.
func DefaultFormat() Format {
	var f Format
	f.LinesPerPage = 55
	f.HeaderLines = 2
	f.MinActionLines = 2
	f.MinDialogueLines = 2
	f.Types[Scene] = TypeSpec{Indent: 0, Width: 60, SpacingBefore: 10, Uppercase: true, Style: StyleBold,
		TabType: Action, ShiftTabType: Transition, EnterType: Action}
	f.Types[Action] = TypeSpec{Indent: 0, Width: 60, SpacingBefore: 10,
		TabType: Character, ShiftTabType: Character, EnterType: Action}
	f.Types[Character] = TypeSpec{Indent: 22, Width: 38, SpacingBefore: 10, Uppercase: true,
		TabType: Action, ShiftTabType: Action, EnterType: Dialogue}
	f.Types[Dialogue] = TypeSpec{Indent: 10, Width: 35, SpacingBefore: 0,
		TabType: Paren, ShiftTabType: Action, EnterType: Character}
	f.Types[Paren] = TypeSpec{Indent: 16, Width: 25, SpacingBefore: 0,
		TabType: Dialogue, ShiftTabType: Dialogue, EnterType: Dialogue}
	f.Types[Transition] = TypeSpec{Indent: 45, Width: 20, SpacingBefore: 10, Uppercase: true,
		TabType: Scene, ShiftTabType: Action, EnterType: Scene}
	f.Types[Shot] = TypeSpec{Indent: 0, Width: 60, SpacingBefore: 10, Uppercase: true,
		TabType: Action, ShiftTabType: Scene, EnterType: Action}
	f.Types[Note] = TypeSpec{Indent: 5, Width: 55, SpacingBefore: 10, Style: StyleItalic,
		TabType: Action, ShiftTabType: Action, EnterType: Action}
	f.Types[ActBreak] = TypeSpec{Indent: 25, Width: 10, SpacingBefore: 10, Uppercase: true, Style: StyleBold | StyleUnderline,
		TabType: Scene, ShiftTabType: Scene, EnterType: Scene}
	return f
}
