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
	"time"
)

func TestScriptSnapshots(t *testing.T) {
	dir := t.TempDir()
	idx := filepath.Join(dir, "index.db")
	sp := filepath.Join(dir, "pilot.gsw")
	other := filepath.Join(dir, "other.gsw")
	ctx := context.Background()

	snap, err := GetLatestScriptSnapshot(ctx, idx, sp)
	if err != nil || snap.Text != "" {
		t.Fatalf("expected no snapshot, got %+v (%v)", snap, err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, txt := range []string{"v1", "v2", "v3"} {
		if err := SaveScriptSnapshot(ctx, idx, sp, txt, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SaveScriptSnapshot: %v", err)
		}
	}
	if err := SaveScriptSnapshot(ctx, idx, other, "x", base.Add(time.Hour)); err != nil {
		t.Fatalf("SaveScriptSnapshot: %v", err)
	}

	snap, err = GetLatestScriptSnapshot(ctx, idx, sp)
	if err != nil || snap.Text != "v3" || !snap.TS.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("latest = %+v (%v)", snap, err)
	}
	n, err := PruneOldScriptSnapshots(ctx, idx, sp, 2)
	if err != nil || n != 1 {
		t.Fatalf("pruned %d (%v), want 1", n, err)
	}
	list, err := ListScriptSnapshots(ctx, idx, sp, 0)
	if err != nil {
		t.Fatalf("ListScriptSnapshots: %v", err)
	}
	if len(list) != 2 || list[0].Text != "v3" || list[1].Text != "v2" {
		t.Fatalf("unexpected snapshots %+v", list)
	}
	if list, _ := ListScriptSnapshots(ctx, idx, other, 10); len(list) != 1 {
		t.Fatalf("other script snapshots touched: %+v", list)
	}
}
