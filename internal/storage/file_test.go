/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validScript = "#goscreenwriter 1\nlSINT. LAB - DAY\nlAThe experiment begins.\n"

func TestCreateSaveOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "lab.gsw")
	h, err := Create(path, validScript)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(path, validScript); !errors.Is(err, ErrExists) {
		t.Fatalf("second Create: got %v, want ErrExists", err)
	}
	if bs, _ := h.ListBackups(); len(bs) != 0 {
		t.Fatalf("first save should not back up: %v", bs)
	}

	next := strings.Replace(validScript, "begins", "fails", 1)
	if err := h.Save(next); err != nil {
		t.Fatalf("Save: %v", err)
	}
	bs, err := h.ListBackups()
	if err != nil || len(bs) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", bs, err)
	}
	if b, _ := os.ReadFile(bs[0]); string(b) != validScript {
		t.Fatalf("backup holds %q", b)
	}

	_, text, fromBackup, err := Open(path)
	if err != nil || fromBackup || text != next {
		t.Fatalf("Open: %q fromBackup=%v err=%v", text, fromBackup, err)
	}
	// No temp files are left behind.
	ents, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestSaveRenamesOverExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.gsw")
	h, err := Create(path, validScript)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	old, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer old.Close()

	next := strings.Replace(validScript, "begins", "ends", 1)
	if err := h.Save(next); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if b, _ := os.ReadFile(path); string(b) != next {
		t.Fatalf("path holds %q, want %q", b, next)
	}
	// The previous file is replaced, not rewritten: an open reader keeps the old text.
	b := make([]byte, len(validScript))
	if _, err := old.Read(b); err != nil || string(b) != validScript {
		t.Fatalf("old handle reads %q (%v)", b, err)
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.gsw")
	h, err := Create(path, validScript)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := h.Save(validScript); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(path, []byte("garbage without header"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, text, fromBackup, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !fromBackup || text != validScript {
		t.Fatalf("expected backup content, got %q fromBackup=%v", text, fromBackup)
	}
}

func TestOpenMissingWithoutBackupFails(t *testing.T) {
	if _, _, _, err := Open(filepath.Join(t.TempDir(), "none.gsw")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBackupsArePruned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.gsw")
	h, err := Create(path, validScript)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.Backups = 2
	for i := 0; i < 4; i++ {
		// Backup names carry milliseconds; distinct content is enough for the check.
		if err := h.Save(validScript + strings.Repeat("#\n", i+1)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	bs, _ := h.ListBackups()
	if len(bs) > 2 {
		t.Fatalf("expected at most 2 backups, got %d", len(bs))
	}
}

func TestSaveAsAndCrashAutosave(t *testing.T) {
	dir := t.TempDir()
	h, err := Create(filepath.Join(dir, "a.gsw"), validScript)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	np := filepath.Join(dir, "copy", "b.gsw")
	if err := h.SaveAs(np, validScript); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Path != np {
		t.Fatalf("handle not retargeted: %s", h.Path)
	}
	p, err := AutosaveCrash(h, "unsaved text")
	if err != nil {
		t.Fatalf("AutosaveCrash: %v", err)
	}
	if filepath.Dir(p) != h.BackupDir() || !strings.HasSuffix(p, FileExt) {
		t.Fatalf("crash file at %s", p)
	}
	if b, _ := os.ReadFile(p); string(b) != "unsaved text" {
		t.Fatalf("crash file holds %q", b)
	}
	if _, err := AutosaveCrash(nil, "x"); err == nil {
		t.Fatalf("nil handle should fail")
	}
}
