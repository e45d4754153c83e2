/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Error represents a recoverable load problem with position context.
// Line and Column are 1-based; Line 0 refers to the document as a whole.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) String() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Issue is a formatting problem found by the lint scan. Line is a 0-based
// index into the document.
type Issue struct {
	Line   int
	Reason string
}

// SceneInfo describes one scene heading.
type SceneInfo struct {
	Number  int
	Line    int
	Heading string
}

// CharacterInfo counts the speeches of one character.
type CharacterInfo struct {
	Name     string
	Speeches int
	// FirstLine is the index of the first cue.
	FirstLine int
}
