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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Screenplay identifies a published script by its absolute path.
type Screenplay struct {
	ID        uuid.UUID
	Path      string
	Title     string
	CreatedAt time.Time
}

// Revision is one published state of a screenplay. Numbers start at 1 and
// increase by one per publish.
type Revision struct {
	ID           int64
	ScreenplayID uuid.UUID
	Number       int
	Author       string
	Text         string
	Pages        int
	Lines        int
	CreatedAt    time.Time
}

// PublishRequest carries the encoded script and its pagination summary.
type PublishRequest struct {
	Path   string
	Title  string
	Author string
	Text   string
	Pages  int
	Lines  int
}

func absPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("empty screenplay path")
	}
	return filepath.Abs(p)
}

// Publish stores req as the next revision of the screenplay at req.Path,
// registering the screenplay on first publish.
func (s *Store) Publish(ctx context.Context, req PublishRequest) (Revision, error) {
	p, err := absPath(req.Path)
	if err != nil {
		return Revision{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The upsert locks the screenplay row, serializing concurrent publishes.
	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `INSERT INTO screenplays(id, path, title) VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET title = CASE WHEN EXCLUDED.title = '' THEN screenplays.title ELSE EXCLUDED.title END
		RETURNING id`, uuid.New(), p, req.Title).Scan(&id)
	if err != nil {
		return Revision{}, fmt.Errorf("upsert screenplay: %w", err)
	}
	rev := Revision{ScreenplayID: id, Author: req.Author, Text: req.Text, Pages: req.Pages, Lines: req.Lines}
	err = tx.QueryRowContext(ctx, `INSERT INTO revisions(screenplay_id, number, author, text, pages, lines)
		SELECT $1, COALESCE(MAX(number), 0) + 1, $2, $3, $4, $5 FROM revisions WHERE screenplay_id = $1
		RETURNING id, number, created_at`, id, req.Author, req.Text, req.Pages, req.Lines).Scan(&rev.ID, &rev.Number, &rev.CreatedAt)
	if err != nil {
		return Revision{}, fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("commit: %w", err)
	}
	s.log.Info("revision published", slog.String("script", p), slog.Int("revision", rev.Number), slog.Int("pages", rev.Pages))
	return rev, nil
}

// ScreenplayByPath looks up a published screenplay.
func (s *Store) ScreenplayByPath(ctx context.Context, p string) (Screenplay, error) {
	ap, err := absPath(p)
	if err != nil {
		return Screenplay{}, err
	}
	var sp Screenplay
	err = s.db.QueryRowContext(ctx, `SELECT id, path, title, created_at FROM screenplays WHERE path = $1`, ap).
		Scan(&sp.ID, &sp.Path, &sp.Title, &sp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Screenplay{}, fmt.Errorf("screenplay %s: %w", ap, ErrNotFound)
	}
	if err != nil {
		return Screenplay{}, fmt.Errorf("select screenplay: %w", err)
	}
	return sp, nil
}

// ListRevisions returns the revisions of a screenplay, newest first, without
// their text.
func (s *Store) ListRevisions(ctx context.Context, id uuid.UUID) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, number, author, pages, lines, created_at
		FROM revisions WHERE screenplay_id = $1 ORDER BY number DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		r := Revision{ScreenplayID: id}
		if err := rows.Scan(&r.ID, &r.Number, &r.Author, &r.Pages, &r.Lines, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRevision fetches one revision including its text. A number <= 0 selects
// the latest revision.
func (s *Store) GetRevision(ctx context.Context, id uuid.UUID, number int) (Revision, error) {
	q := `SELECT id, number, author, text, pages, lines, created_at FROM revisions WHERE screenplay_id = $1 AND number = $2`
	args := []any{id, number}
	if number <= 0 {
		q = `SELECT id, number, author, text, pages, lines, created_at FROM revisions WHERE screenplay_id = $1 ORDER BY number DESC LIMIT 1`
		args = args[:1]
	}
	r := Revision{ScreenplayID: id}
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&r.ID, &r.Number, &r.Author, &r.Text, &r.Pages, &r.Lines, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("revision %d: %w", number, ErrNotFound)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("select revision: %w", err)
	}
	return r, nil
}
