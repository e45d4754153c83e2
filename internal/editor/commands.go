/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"

	"goscreenwriter/internal/domain"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidInput   = errors.New("invalid input")
)

// Kind names an editing command.
type Kind int

const (
	MoveLeft Kind = iota
	MoveRight
	MoveUp
	MoveDown
	MoveLineStart
	MoveLineEnd
	MoveDocStart
	MoveDocEnd
	MoveSceneUp
	MoveSceneDown
	MovePageUp
	MovePageDown
	SetMark
	AbortSelection
	InsertChar
	DeleteForward
	DeleteBackward
	SplitElement
	JoinOrConvertType
	InsertForcedBreak
	Undo
	Redo
	ConvertType
	Cut
	Copy
	Paste
	RemoveType
)

var kindNames = [...]string{
	"move-left", "move-right", "move-up", "move-down", "move-line-start", "move-line-end",
	"move-doc-start", "move-doc-end", "move-scene-up", "move-scene-down", "move-page-up", "move-page-down",
	"set-mark", "abort-selection", "insert-char", "delete-forward", "delete-backward", "split-element",
	"join-or-convert-type", "insert-forced-break", "undo", "redo", "convert-type", "cut", "copy", "paste",
	"remove-type",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a command name back to its kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Command is one editing intent. Char is used by InsertChar, Reverse by
// JoinOrConvertType, Type by ConvertType and RemoveType, Text by Paste (an
// empty Text pastes the internal clipboard).
type Command struct {
	Kind    Kind
	Char    rune
	Reverse bool
	Type    domain.ElementType
	Text    string
}

// Execute runs one command to completion.
func (e *Editor) Execute(cmd Command) error {
	e.doc.ClampCursor()
	switch cmd.Kind {
	case MoveLeft:
		e.moveLeft()
	case MoveRight:
		e.moveRight()
	case MoveUp:
		e.moveVertical(-1)
	case MoveDown:
		e.moveVertical(1)
	case MoveLineStart:
		e.doc.Cursor.Column = 0
	case MoveLineEnd:
		e.doc.Cursor.Column = e.doc.Lines[e.doc.Cursor.Line].Len()
	case MoveDocStart:
		e.doc.Cursor = domain.Pos{}
	case MoveDocEnd:
		last := len(e.doc.Lines) - 1
		e.doc.Cursor = domain.Pos{Line: last, Column: e.doc.Lines[last].Len()}
	case MoveSceneUp:
		e.moveSceneUp()
	case MoveSceneDown:
		e.moveSceneDown()
	case MovePageUp:
		e.movePage(-1)
	case MovePageDown:
		e.movePage(1)
	case SetMark:
		m := e.doc.Cursor
		e.doc.Mark = &m
	case AbortSelection:
		e.doc.Mark = nil
	case InsertChar:
		return e.insertChar(cmd.Char)
	case DeleteForward:
		return e.deleteForward()
	case DeleteBackward:
		return e.deleteBackward()
	case SplitElement:
		return e.splitElement()
	case JoinOrConvertType:
		return e.joinOrConvert(cmd.Reverse)
	case InsertForcedBreak:
		return e.insertForcedBreak()
	case Undo:
		return e.undo()
	case Redo:
		return e.redo()
	case ConvertType:
		return e.convertType(cmd.Type)
	case Cut:
		return e.cut()
	case Copy:
		e.copySelection()
	case Paste:
		return e.paste(cmd.Text)
	case RemoveType:
		return e.removeType(cmd.Type)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

func (e *Editor) moveLeft() {
	c := &e.doc.Cursor
	if c.Column > 0 {
		c.Column--
	} else if c.Line > 0 {
		c.Line--
		c.Column = e.doc.Lines[c.Line].Len()
	}
}

func (e *Editor) moveRight() {
	c := &e.doc.Cursor
	if c.Column < e.doc.Lines[c.Line].Len() {
		c.Column++
	} else if c.Line < len(e.doc.Lines)-1 {
		c.Line++
		c.Column = 0
	}
}

func (e *Editor) moveVertical(d int) {
	e.doc.Cursor = domain.ClampPos(domain.Pos{Line: e.doc.Cursor.Line + d, Column: e.doc.Cursor.Column}, e.doc.Lines)
}

func (e *Editor) isSceneStart(i int) bool {
	ls := e.doc.Lines
	return ls[i].Type == domain.Scene && (i == 0 || ls[i-1].Break == domain.BreakLast)
}

func (e *Editor) moveSceneUp() {
	i := e.doc.Cursor.Line
	if e.doc.Cursor.Column == 0 && e.isSceneStart(i) {
		i--
	}
	for i > 0 && !e.isSceneStart(i) {
		i--
	}
	if i < 0 {
		i = 0
	}
	e.doc.Cursor = domain.Pos{Line: i}
}

func (e *Editor) moveSceneDown() {
	i := e.doc.Cursor.Line + 1
	for i < len(e.doc.Lines) && !e.isSceneStart(i) {
		i++
	}
	if i >= len(e.doc.Lines) {
		last := len(e.doc.Lines) - 1
		e.doc.Cursor = domain.Pos{Line: last, Column: e.doc.Lines[last].Len()}
		return
	}
	e.doc.Cursor = domain.Pos{Line: i}
}

func (e *Editor) movePage(d int) {
	pages := e.Pages()
	p := pages.PageForLine(e.doc.Cursor.Line) + d
	if p < 1 {
		p = 1
	}
	if p > pages.PageCount() {
		p = pages.PageCount()
	}
	e.doc.Cursor = domain.Pos{Line: pages.LineForPage(p)}
}
