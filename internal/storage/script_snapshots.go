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
	"path/filepath"
	"time"
)

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(path, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT ts, text FROM script_snapshots WHERE path = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT ts, text FROM script_snapshots WHERE path = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE path = ? AND id NOT IN (
	SELECT id FROM script_snapshots WHERE path = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// ScriptSnapshot is one stored version of a script's text.
type ScriptSnapshot struct {
	TS   time.Time
	Text string
}

func snapshotKey(scriptPath string) (string, error) {
	if scriptPath == "" {
		return "", errors.New("script path is required")
	}
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return "", fmt.Errorf("resolve script path: %w", err)
	}
	return abs, nil
}

// SaveScriptSnapshot stores the full text of a script with a timestamp.
// The index is derived data; this history is meant for change tracking, not canonical storage.
func SaveScriptSnapshot(ctx context.Context, indexPath, scriptPath, text string, ts time.Time) error {
	key, err := snapshotKey(scriptPath)
	if err != nil {
		return err
	}
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertScriptSnapshotSQL, key, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// GetLatestScriptSnapshot returns the latest snapshot of a script, or an empty one if none.
func GetLatestScriptSnapshot(ctx context.Context, indexPath, scriptPath string) (ScriptSnapshot, error) {
	key, err := snapshotKey(scriptPath)
	if err != nil {
		return ScriptSnapshot{}, err
	}
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return ScriptSnapshot{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr, txt string
	err = db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL, key).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return ScriptSnapshot{}, nil
	}
	if err != nil {
		return ScriptSnapshot{}, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return ScriptSnapshot{TS: ts, Text: txt}, nil
}

// ListScriptSnapshots returns up to limit most recent snapshots of a script, newest first.
func ListScriptSnapshots(ctx context.Context, indexPath, scriptPath string, limit int) ([]ScriptSnapshot, error) {
	key, err := snapshotKey(scriptPath)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listScriptSnapshotsSQL, key, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ScriptSnapshot
	for rows.Next() {
		var tsStr, txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, ScriptSnapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneOldScriptSnapshots keeps at most keepLast snapshots of a script and deletes older ones.
func PruneOldScriptSnapshots(ctx context.Context, indexPath, scriptPath string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	key, err := snapshotKey(scriptPath)
	if err != nil {
		return 0, err
	}
	db, err := InitOrOpenIndex(indexPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldScriptSnapshotsSQL, key, key, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
