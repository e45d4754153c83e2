/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"fmt"
	"strings"
)

// RevisionQuery filters a revision search. An empty Text matches every revision.
type RevisionQuery struct {
	Text       string
	Path       string
	LatestOnly bool
	Limit      int
	Offset     int
}

// RevisionHit is one matching revision with a highlighted fragment.
type RevisionHit struct {
	Path    string
	Title   string
	Number  int
	Pages   int
	Snippet string
}

// SearchRevisions runs a full-text query over published revision texts.
func (s *Store) SearchRevisions(ctx context.Context, q RevisionQuery) ([]RevisionHit, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		tq := place(text)
		b.WriteString("SELECT sp.path, sp.title, r.number, r.pages, ")
		b.WriteString("COALESCE(ts_headline('simple', r.text, plainto_tsquery('simple', " + tq + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM revisions r JOIN screenplays sp ON sp.id = r.screenplay_id ")
		b.WriteString("WHERE r.search_vector @@ plainto_tsquery('simple', " + tq + ") ")
	} else {
		b.WriteString("SELECT sp.path, sp.title, r.number, r.pages, '' ")
		b.WriteString("FROM revisions r JOIN screenplays sp ON sp.id = r.screenplay_id WHERE TRUE ")
	}
	if p := strings.TrimSpace(q.Path); p != "" {
		ap, err := absPath(p)
		if err != nil {
			return nil, err
		}
		b.WriteString(" AND sp.path = " + place(ap) + " ")
	}
	if q.LatestOnly {
		b.WriteString(" AND r.number = (SELECT MAX(number) FROM revisions r2 WHERE r2.screenplay_id = r.screenplay_id) ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY sp.path, r.number DESC ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search revisions query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RevisionHit
	for rows.Next() {
		var h RevisionHit
		if err := rows.Scan(&h.Path, &h.Title, &h.Number, &h.Pages, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
