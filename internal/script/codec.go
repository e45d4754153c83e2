/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script reads and writes the line-oriented screenplay format and
// answers structural queries over a line sequence.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"goscreenwriter/internal/domain"
)

const (
	// Magic starts the header line of every screenplay file.
	Magic = "#goscreenwriter"
	// FormatVersion is the only version this package reads and writes.
	FormatVersion = 1
)

var (
	ErrMissingHeader      = errors.New("missing #goscreenwriter header")
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// Header returns the header line written by Encode.
func Header() string { return Magic + " " + strconv.Itoa(FormatVersion) }

// Encode serializes lines: a header, then one record per line.
func Encode(ls []domain.Line) string {
	var b strings.Builder
	b.WriteString(Header())
	b.WriteByte('\n')
	buf := make([]byte, 0, 128)
	for _, l := range ls {
		buf = domain.AppendRecord(buf[:0], l)
		b.Write(buf)
		b.WriteByte('\n')
	}
	return b.String()
}

func parseHeader(line string) error {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Magic) {
		return ErrMissingHeader
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, Magic))
	v, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, rest)
	}
	if v != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return nil
}

// Decode parses serialized text. A missing or unknown header fails the whole
// load; bad records are replaced by safe defaults and reported as warnings.
// The returned lines are raw: callers must Repair and re-wrap them before
// use.
func Decode(text string) ([]domain.Line, []Error, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, nil, fmt.Errorf("read header: %w", err)
		}
		return nil, nil, ErrMissingHeader
	}
	if err := parseHeader(sc.Text()); err != nil {
		return nil, nil, err
	}

	var ls []domain.Line
	var warns []Error
	lineNo := 1
	for sc.Scan() {
		lineNo++
		rec := strings.TrimSuffix(sc.Text(), "\r")
		if strings.HasPrefix(rec, "#") {
			continue
		}
		l, issues := domain.ParseRecord(rec)
		for _, is := range issues {
			warns = append(warns, Error{Line: lineNo, Column: is.Column, Message: is.Message})
		}
		ls = append(ls, l)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return ls, warns, nil
}

// Repair enforces the document invariants on freshly decoded lines: every
// element carries its first line's type and the final line ends an element.
// An empty input becomes a single empty scene heading.
func Repair(ls []domain.Line) ([]domain.Line, []Error) {
	doc := &domain.Document{Lines: ls}
	var warns []Error
	if len(ls) == 0 {
		doc.EnsureLastBreak()
		return doc.Lines, []Error{{Message: "empty screenplay"}}
	}
	for _, i := range doc.UnifyElementTypes() {
		warns = append(warns, Error{Message: fmt.Sprintf("line %d retyped to match its element", i+1)})
	}
	if doc.EnsureLastBreak() {
		warns = append(warns, Error{Message: "final line did not end an element"})
	}
	return doc.Lines, warns
}
