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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/domain"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pagination"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the SQLite schema of the index.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// InitOrOpenIndex ensures that the SQLite index at path exists, opens it,
// enables WAL mode and brings the schema up to date.
// The returned *sql.DB is ready for use. Callers close it when done.
func InitOrOpenIndex(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("index", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema number; migrations advance it.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(script_id, type);`,
				`CREATE INDEX IF NOT EXISTS idx_elements_character ON elements(character);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS scripts (
			script_id  INTEGER PRIMARY KEY,
			path       TEXT    NOT NULL UNIQUE,
			title      TEXT,
			pages      INTEGER NOT NULL,
			lines      INTEGER NOT NULL,
			indexed_at TEXT    NOT NULL
		);`,
		// One row per element; text is the reconstituted element text.
		`CREATE TABLE IF NOT EXISTS elements (
			doc_id    INTEGER PRIMARY KEY,
			script_id INTEGER NOT NULL REFERENCES scripts(script_id) ON DELETE CASCADE,
			type      TEXT    NOT NULL,
			line      INTEGER NOT NULL,
			page      INTEGER NOT NULL,
			scene     INTEGER NOT NULL,
			character TEXT,
			text      TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_script ON elements(script_id, line);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(script_id, type);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_character ON elements(character);`,

		// Contentless FTS5 index fed from elements via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_elements USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		`CREATE TABLE IF NOT EXISTS scenes (
			script_id INTEGER NOT NULL REFERENCES scripts(script_id) ON DELETE CASCADE,
			number    INTEGER NOT NULL,
			line      INTEGER NOT NULL,
			page      INTEGER NOT NULL,
			heading   TEXT    NOT NULL,
			PRIMARY KEY(script_id, number)
		);`,
		`CREATE TABLE IF NOT EXISTS characters (
			script_id  INTEGER NOT NULL REFERENCES scripts(script_id) ON DELETE CASCADE,
			name       TEXT    NOT NULL,
			speeches   INTEGER NOT NULL,
			first_line INTEGER NOT NULL,
			PRIMARY KEY(script_id, name)
		);`,

		// Script snapshots (history of script text for change tracking)
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id    INTEGER PRIMARY KEY,
			path  TEXT    NOT NULL,
			ts    TEXT    NOT NULL,
			text  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_path_ts ON script_snapshots(path, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS elements_ai AFTER INSERT ON elements BEGIN
			INSERT INTO fts_elements(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_ad AFTER DELETE ON elements BEGIN
			INSERT INTO fts_elements(fts_elements, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_au AFTER UPDATE OF text ON elements BEGIN
			INSERT INTO fts_elements(fts_elements, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_elements(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks the index for corruption or a missing schema.
// A damaged file is backed up next to the index, removed and recreated
// empty; callers then re-index their scripts. It returns true when that happened.
func DetectAndRebuildIndex(ctx context.Context, path string) (bool, error) {
	db, err := InitOrOpenIndex(path)
	if err == nil {
		needs := false
		var chk string
		if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			needs = true
		}
		if !needs {
			if _, err := db.ExecContext(ctx, `SELECT 1 FROM elements LIMIT 1;`); err != nil {
				needs = true
			}
		}
		_ = db.Close()
		if !needs {
			return false, nil
		}
	}
	applog.WithComponent("storage").Warn("index damaged, rebuilding", slog.String("index", path), slog.Any("err", err))
	backupIndexFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	db, err = InitOrOpenIndex(path)
	if err != nil {
		return false, fmt.Errorf("recreate index: %w", err)
	}
	return true, db.Close()
}

// backupIndexFile copies the current index file into a timestamped backup.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), time.Now().Format(stampLayout)))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// IndexScript replaces everything the index knows about scriptPath with the
// elements, scenes and characters of ls. res supplies page numbers.
func IndexScript(ctx context.Context, indexPath, scriptPath string, ls []domain.Line, res pagination.Result) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_script")
	ctx = applog.ContextWithScript(ctx, scriptPath)
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return err
	}
	defer db.Close()

	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	scenes := script.Scenes(ls)
	title := ""
	if len(scenes) > 0 {
		title = scenes[0].Heading
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(e error) error {
		_ = tx.Rollback()
		l.ErrorContext(ctx, "index script failed", slog.Any("err", e))
		return e
	}
	// Delete element rows explicitly so the FTS triggers see them.
	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE script_id IN (SELECT script_id FROM scripts WHERE path=?)`, abs); err != nil {
		return rollback(fmt.Errorf("clear elements: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scripts WHERE path=?`, abs); err != nil {
		return rollback(fmt.Errorf("clear script: %w", err))
	}
	r, err := tx.ExecContext(ctx, `INSERT INTO scripts(path, title, pages, lines, indexed_at) VALUES(?,?,?,?,?)`,
		abs, title, res.PageCount(), len(ls), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return rollback(fmt.Errorf("insert script: %w", err))
	}
	id, err := r.LastInsertId()
	if err != nil {
		return rollback(fmt.Errorf("script id: %w", err))
	}

	ins, err := tx.PrepareContext(ctx, `INSERT INTO elements(script_id, type, line, page, scene, character, text) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return rollback(fmt.Errorf("prepare insert: %w", err))
	}
	defer ins.Close()
	scene := 0
	speaker := ""
	for i := 0; i < len(ls); i = domain.ElementLast(ls, i) + 1 {
		t := ls[i].Type
		text := script.ElementText(ls, i)
		switch t {
		case domain.Scene:
			scene++
			speaker = ""
		case domain.Character:
			speaker = script.CueName(text)
		case domain.Dialogue, domain.Paren:
		default:
			speaker = ""
		}
		var ch sql.NullString
		if speaker != "" {
			ch = sql.NullString{String: speaker, Valid: true}
		}
		if _, err := ins.ExecContext(ctx, id, t.String(), i, res.PageForLine(i), scene, ch, text); err != nil {
			return rollback(fmt.Errorf("insert element: %w", err))
		}
	}
	for _, s := range scenes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO scenes(script_id, number, line, page, heading) VALUES(?,?,?,?,?)`,
			id, s.Number, s.Line, res.PageForLine(s.Line), s.Heading); err != nil {
			return rollback(fmt.Errorf("insert scene: %w", err))
		}
	}
	for _, c := range script.Characters(ls) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO characters(script_id, name, speeches, first_line) VALUES(?,?,?,?)`,
			id, c.Name, c.Speeches, c.FirstLine); err != nil {
			return rollback(fmt.Errorf("insert character: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return rollback(fmt.Errorf("commit: %w", err))
	}
	l.InfoContext(ctx, "script indexed", slog.Int("pages", res.PageCount()), slog.Int("scenes", len(scenes)))
	return nil
}

// RemoveScript drops scriptPath from the index.
func RemoveScript(ctx context.Context, indexPath, scriptPath string) error {
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return err
	}
	defer db.Close()
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{
		`DELETE FROM elements WHERE script_id IN (SELECT script_id FROM scripts WHERE path=?)`,
		`DELETE FROM scripts WHERE path=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, abs); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("remove script: %w", err)
		}
	}
	return tx.Commit()
}

// IndexedScript summarizes one indexed file.
type IndexedScript struct {
	Path      string
	Title     string
	Pages     int
	Lines     int
	IndexedAt time.Time
}

// ListScripts returns every indexed script ordered by path.
func ListScripts(ctx context.Context, indexPath string) ([]IndexedScript, error) {
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT path, COALESCE(title,''), pages, lines, indexed_at FROM scripts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer rows.Close()
	var out []IndexedScript
	for rows.Next() {
		var s IndexedScript
		var ts string
		if err := rows.Scan(&s.Path, &s.Title, &s.Pages, &s.Lines, &ts); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.IndexedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SceneEntry is an indexed scene heading with its page.
type SceneEntry struct {
	Number  int
	Line    int
	Page    int
	Heading string
}

// ListScenes returns the indexed scenes of scriptPath in order.
func ListScenes(ctx context.Context, indexPath, scriptPath string) ([]SceneEntry, error) {
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("resolve script path: %w", err)
	}
	rows, err := db.QueryContext(ctx, `SELECT s.number, s.line, s.page, s.heading
		FROM scenes s JOIN scripts p ON p.script_id = s.script_id
		WHERE p.path = ? ORDER BY s.number`, abs)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	var out []SceneEntry
	for rows.Next() {
		var s SceneEntry
		if err := rows.Scan(&s.Number, &s.Line, &s.Page, &s.Heading); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
