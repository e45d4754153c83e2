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

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"goscreenwriter/internal/domain"
)

// ErrCorruptBlob is returned when a stored snapshot cannot be decoded.
var ErrCorruptBlob = errors.New("corrupt undo snapshot")

// Blob is a compacted run of lines. Data holds newline-separated records,
// gzip-compressed when that came out smaller.
type Blob struct {
	Compressed bool
	Count      int
	Data       []byte
}

// Compact serializes ls and keeps whichever of the plain and the gzip form
// is smaller.
func Compact(ls []domain.Line) Blob {
	var raw []byte
	for _, l := range ls {
		raw = domain.AppendRecord(raw, l)
		raw = append(raw, '\n')
	}
	b := Blob{Count: len(ls), Data: raw}
	if len(raw) < 64 {
		return b
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return b
	}
	if _, err := zw.Write(raw); err != nil {
		return b
	}
	if err := zw.Close(); err != nil {
		return b
	}
	if buf.Len() < len(raw) {
		b.Compressed = true
		b.Data = buf.Bytes()
	}
	return b
}

// Size is the number of bytes the blob occupies.
func (b Blob) Size() int { return len(b.Data) }

// Lines expands the blob back into lines.
func (b Blob) Lines() ([]domain.Line, error) {
	raw := b.Data
	if b.Compressed {
		zr, err := gzip.NewReader(bytes.NewReader(b.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
		}
	}
	out := make([]domain.Line, 0, b.Count)
	for _, rec := range strings.SplitAfter(string(raw), "\n") {
		if rec == "" {
			continue
		}
		l, issues := domain.ParseRecord(strings.TrimSuffix(rec, "\n"))
		if len(issues) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrCorruptBlob, issues[0].Message)
		}
		out = append(out, l)
	}
	if len(out) != b.Count {
		return nil, fmt.Errorf("%w: %d lines, want %d", ErrCorruptBlob, len(out), b.Count)
	}
	return out, nil
}
