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
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// SearchQuery describes a search over the index.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Types restricts to element type names such as "dialogue" or "scene".
// Character matches the speaker of dialogue, parentheticals and cues.
// Script restricts to one file. PageFrom/To are inclusive; 0 means unset.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text      string
	Types     []string
	Character string
	Script    string
	Scene     int
	PageFrom  int
	PageTo    int
	Limit     int
	Offset    int
}

// SearchResult is a single matching element.
type SearchResult struct {
	DocID     int64
	Script    string
	Type      string
	Line      int
	Page      int
	Scene     int
	Character string
	Text      string
}

// Search performs full-text search with optional filters over the index.
// When q.Text is empty, it falls back to a filtered scan of the elements.
func Search(ctx context.Context, indexPath string, q SearchQuery) ([]SearchResult, error) {
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	const cols = "SELECT e.doc_id, s.path, e.type, e.line, e.page, e.scene, COALESCE(e.character,''), COALESCE(e.text,'')\n"
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString(cols)
		sb.WriteString("FROM fts_elements JOIN elements e ON fts_elements.rowid = e.doc_id\n")
		sb.WriteString("JOIN scripts s ON s.script_id = e.script_id\n")
		sb.WriteString("WHERE fts_elements MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString(cols)
		sb.WriteString("FROM elements e JOIN scripts s ON s.script_id = e.script_id\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND e.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, strings.ToLower(strings.TrimSpace(t)))
		}
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND e.character = ?\n")
		args = append(args, strings.ToUpper(s))
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil, fmt.Errorf("resolve script path: %w", err)
		}
		sb.WriteString(" AND s.path = ?\n")
		args = append(args, abs)
	}
	if q.Scene > 0 {
		sb.WriteString(" AND e.scene = ?\n")
		args = append(args, q.Scene)
	}
	switch {
	case q.PageFrom > 0 && q.PageTo > 0 && q.PageTo >= q.PageFrom:
		sb.WriteString(" AND e.page BETWEEN ? AND ?\n")
		args = append(args, q.PageFrom, q.PageTo)
	case q.PageFrom > 0:
		sb.WriteString(" AND e.page >= ?\n")
		args = append(args, q.PageFrom)
	case q.PageTo > 0:
		sb.WriteString(" AND e.page <= ?\n")
		args = append(args, q.PageTo)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY s.path, e.line\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Script, &r.Type, &r.Line, &r.Page, &r.Scene, &r.Character, &r.Text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
