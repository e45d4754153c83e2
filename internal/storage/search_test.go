/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSearch(t *testing.T) {
	idx, sp := indexSample(t, t.TempDir())
	ctx := context.Background()

	cases := []struct {
		name  string
		q     SearchQuery
		lines []int
	}{
		{"fts", SearchQuery{Text: "owls"}, []int{7}},
		{"fts case-insensitive", SearchQuery{Text: "BREAKFAST"}, []int{3}},
		{"fts phrase", SearchQuery{Text: `"go to sleep"`}, []int{9}},
		{"character", SearchQuery{Character: "anna", Types: []string{"dialogue"}}, []int{3, 9}},
		{"speaker covers parentheticals", SearchQuery{Character: "BEN", Types: []string{"paren"}}, []int{6}},
		{"scene", SearchQuery{Scene: 1}, []int{0, 1, 2, 3}},
		{"type", SearchQuery{Types: []string{"Scene"}}, []int{0, 4}},
		{"script filter", SearchQuery{Script: sp, Text: "toast"}, []int{1}},
		{"pagination", SearchQuery{Types: []string{"dialogue"}, Limit: 1, Offset: 1}, []int{7}},
		{"page range", SearchQuery{Text: "owls", PageFrom: 2}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Search(ctx, idx, tc.q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(res) != len(tc.lines) {
				t.Fatalf("got %d results %+v, want lines %v", len(res), res, tc.lines)
			}
			for i, r := range res {
				if r.Line != tc.lines[i] {
					t.Fatalf("result %d line = %d, want %d", i, r.Line, tc.lines[i])
				}
			}
		})
	}
}

func TestSearchResultFields(t *testing.T) {
	idx, sp := indexSample(t, t.TempDir())
	res, err := Search(context.Background(), idx, SearchQuery{Text: "awake"})
	if err != nil || len(res) != 1 {
		t.Fatalf("Search: %v %+v", err, res)
	}
	r := res[0]
	if r.Type != "dialogue" || r.Character != "BEN" || r.Scene != 2 || r.Page != 1 || r.Text != "The owls are awake." {
		t.Fatalf("unexpected result %+v", r)
	}
	if !filepath.IsAbs(r.Script) || filepath.Base(r.Script) != filepath.Base(sp) {
		t.Fatalf("script path = %q, want suffix of %q", r.Script, sp)
	}
}
