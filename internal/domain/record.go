/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Records are the line-oriented text form of a Line: a break code, a type
// code, then the raw text. They are shared by the file codec and the undo
// snapshots.

// RecordIssue describes a substitution made while parsing a record.
// Column is 1-based.
type RecordIssue struct {
	Column  int
	Message string
}

// AppendRecord appends the record form of l (without a newline) to dst.
func AppendRecord(dst []byte, l Line) []byte {
	dst = append(dst, l.Break.Code(), l.Type.Code())
	return append(dst, l.Text...)
}

// ParseRecord decodes one record. Unknown codes degrade to a forced break
// and the Action type; a record too short to hold both codes becomes an
// empty Action line.
func ParseRecord(rec string) (Line, []RecordIssue) {
	if len(rec) < 2 {
		return Line{Type: Action, Break: BreakForced}, []RecordIssue{{Column: 1, Message: "record too short"}}
	}
	var issues []RecordIssue
	b, ok := ParseBreakCode(rec[0])
	if !ok {
		issues = append(issues, RecordIssue{Column: 1, Message: "unknown break code " + quoteByte(rec[0])})
	}
	t, ok := ParseTypeCode(rec[1])
	if !ok {
		issues = append(issues, RecordIssue{Column: 2, Message: "unknown type code " + quoteByte(rec[1])})
	}
	return Line{Text: rec[2:], Type: t, Break: b}, issues
}

func quoteByte(c byte) string {
	if c < 0x20 || c >= 0x7f {
		const hex = "0123456789abcdef"
		return "0x" + string([]byte{hex[c>>4], hex[c&0xf]})
	}
	return "'" + string(c) + "'"
}
