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
	"testing"
	"time"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/pagination"

	_ "modernc.org/sqlite"
)

func sampleLines() []domain.Line {
	el := func(t domain.ElementType, s string) domain.Line {
		return domain.Line{Text: s, Type: t, Break: domain.BreakLast}
	}
	return []domain.Line{
		el(domain.Scene, "INT. KITCHEN - DAY"),
		el(domain.Action, "Toast pops."),
		el(domain.Character, "ANNA"),
		el(domain.Dialogue, "Breakfast is ready."),
		el(domain.Scene, "EXT. GARDEN - NIGHT"),
		el(domain.Character, "BEN (V.O.)"),
		el(domain.Paren, "(whispering)"),
		el(domain.Dialogue, "The owls are awake."),
		el(domain.Character, "ANNA"),
		el(domain.Dialogue, "Go to sleep."),
	}
}

func paginateSample(ls []domain.Line) pagination.Result {
	f := domain.DefaultFormat()
	return pagination.Paginate(ls, &f)
}

func indexSample(t testing.TB, dir string) (indexPath, scriptPath string) {
	t.Helper()
	indexPath = filepath.Join(dir, "index.db")
	scriptPath = filepath.Join(dir, "pilot.gsw")
	ls := sampleLines()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := IndexScript(ctx, indexPath, scriptPath, ls, paginateSample(ls)); err != nil {
		t.Fatalf("IndexScript: %v", err)
	}
	return indexPath, scriptPath
}

func TestIndexInitCreatesWALAndSchema(t *testing.T) {
	idx := filepath.Join(t.TempDir(), "nested", "index.db")
	db, err := InitOrOpenIndex(idx)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','scripts','elements','fts_elements','scenes','characters','script_snapshots')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 8 {
		t.Fatalf("expected 8 tables, got %d", cnt)
	}
	var schema int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema = %d (%v), want %d", schema, err, schemaVersion)
	}
}

func TestIndexScriptPopulatesTables(t *testing.T) {
	dir := t.TempDir()
	idx, sp := indexSample(t, dir)
	ctx := context.Background()

	scripts, err := ListScripts(ctx, idx)
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	if len(scripts) != 1 || scripts[0].Title != "INT. KITCHEN - DAY" || scripts[0].Pages != 1 || scripts[0].Lines != 10 {
		t.Fatalf("unexpected scripts: %+v", scripts)
	}
	scenes, err := ListScenes(ctx, idx, sp)
	if err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	if len(scenes) != 2 || scenes[1].Heading != "EXT. GARDEN - NIGHT" || scenes[1].Line != 4 || scenes[1].Page != 1 {
		t.Fatalf("unexpected scenes: %+v", scenes)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(idx)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	var speeches int
	if err := db.QueryRowContext(ctx, `SELECT speeches FROM characters WHERE name='ANNA'`).Scan(&speeches); err != nil {
		t.Fatalf("query characters: %v", err)
	}
	if speeches != 2 {
		t.Fatalf("ANNA speeches = %d, want 2", speeches)
	}
}

func TestIndexScriptReplacesPreviousRows(t *testing.T) {
	dir := t.TempDir()
	idx, _ := indexSample(t, dir)
	indexSample(t, dir)
	res, err := Search(context.Background(), idx, SearchQuery{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != len(sampleLines()) {
		t.Fatalf("got %d elements after re-index, want %d", len(res), len(sampleLines()))
	}
	hits, err := Search(context.Background(), idx, SearchQuery{Text: "owls"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("FTS returned %d hits after re-index, want 1", len(hits))
	}
}

func TestRemoveScript(t *testing.T) {
	dir := t.TempDir()
	idx, sp := indexSample(t, dir)
	ctx := context.Background()
	if err := RemoveScript(ctx, idx, sp); err != nil {
		t.Fatalf("RemoveScript: %v", err)
	}
	scripts, err := ListScripts(ctx, idx)
	if err != nil || len(scripts) != 0 {
		t.Fatalf("scripts after remove: %+v (%v)", scripts, err)
	}
	hits, err := Search(ctx, idx, SearchQuery{Text: "owls"})
	if err != nil || len(hits) != 0 {
		t.Fatalf("FTS hits after remove: %+v (%v)", hits, err)
	}
}
