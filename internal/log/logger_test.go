/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lastJSON(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

// TestInitAndStructuredLoggingToFile verifies that the rotating file handler
// writes JSON with static and contextual attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "gsw.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Writer: &console})

	l := WithOperation(WithComponent("testcomp"), "op1")
	ctx := ContextWithScript(context.Background(), "/tmp/pilot.gsw")
	l.InfoContext(ctx, "hello world", slog.String("k", "v"))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, out := range [][]byte{b, console.Bytes()} {
		m := lastJSON(t, out)
		if m["app"] != "goscreenwriter" {
			t.Fatalf("missing app attr: %v", m["app"])
		}
		if _, ok := m["ver"].(string); !ok {
			t.Fatalf("missing ver attr")
		}
		if m["component"] != "testcomp" || m["op"] != "op1" {
			t.Fatalf("context attrs mismatch: %v", m)
		}
		if m["script"] != "/tmp/pilot.gsw" {
			t.Fatalf("script attr mismatch: %v", m["script"])
		}
		if m["msg"] != "hello world" {
			t.Fatalf("msg mismatch: %v", m["msg"])
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Writer: &buf})
	L().Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info: %q", buf.String())
	}
	SetLevel("debug")
	L().Debug("shown")
	if !strings.Contains(buf.String(), "DBG shown") {
		t.Fatalf("expected debug line after SetLevel: %q", buf.String())
	}
}
