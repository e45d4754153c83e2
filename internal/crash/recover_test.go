/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenwriter/internal/storage"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, r)
		close(done)
	}()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

// TestRecover_WritesReportAndAutosave ensures Recover handles a panic, writes
// a report and an autosave, and exits through the injected exitFn.
func TestRecover_WritesReportAndAutosave(t *testing.T) {
	silenceStderr(t)
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	t.Cleanup(func() { exitFn = oldExit })

	root := t.TempDir()
	h := &storage.ScriptHandle{Path: filepath.Join(root, "pilot.gsw")}
	sess := &Session{Handle: h, Text: func() string { return "#goscreenwriter 1\nlAunsaved\n" }}

	func() {
		defer Recover(sess)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	ents, err := os.ReadDir(h.BackupDir())
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var report, save string
	for _, e := range ents {
		switch {
		case strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log"):
			report = filepath.Join(h.BackupDir(), e.Name())
		case strings.Contains(e.Name(), ".crash-"):
			save = filepath.Join(h.BackupDir(), e.Name())
		}
	}
	if report == "" || save == "" {
		t.Fatalf("expected report and autosave, got %v", ents)
	}
	if b, _ := os.ReadFile(report); !strings.Contains(string(b), "Panic: boom") {
		t.Fatalf("report does not contain panic: %s", b)
	}
	if b, _ := os.ReadFile(save); !strings.Contains(string(b), "unsaved") {
		t.Fatalf("autosave content: %s", b)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	t.Cleanup(func() { exitFn = oldExit })
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}
