/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"goscreenwriter/internal/domain"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Page.LinesPerPage != 55 || cfg.Editor.PaginateInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Storage.IndexPath != filepath.Join(filepath.Dir(path), "index.db") {
		t.Fatalf("index path = %q", cfg.Storage.IndexPath)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")
	t.Setenv(EnvConfigPath, path)
	cfg := Defaults()
	cfg.General.Author = "Jo Writer"
	w := 30
	cfg.Types = map[string]TypeOverride{"dialogue": {Width: &w}}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.General.Author != "Jo Writer" {
		t.Fatalf("author = %q", got.General.Author)
	}
	f, err := got.Format()
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if f.Types[domain.Dialogue].Width != 30 {
		t.Fatalf("dialogue width = %d, want 30", f.Types[domain.Dialogue].Width)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("page: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG "
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/gsw.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gsw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	src.Page.HeaderLines = 3
	mergeInto(&dst, &src)
	if dst.Page.LinesPerPage != 55 || dst.Page.HeaderLines != 3 || dst.Storage.Backups != 5 {
		t.Fatalf("merge mismatch: %+v", dst)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/log/gsw.log")
	t.Setenv(EnvLinesPerPage, "50")
	t.Setenv(EnvPostgresDSN, "postgres://u@localhost/gsw")
	t.Setenv(EnvUndoMaxBytes, "not-a-number")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/log/gsw.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if cfg.Page.LinesPerPage != 50 || cfg.Storage.PostgresDSN != "postgres://u@localhost/gsw" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Editor.UndoMaxBytes != Defaults().Editor.UndoMaxBytes {
		t.Fatalf("invalid integer should be ignored, got %d", cfg.Editor.UndoMaxBytes)
	}
	if env, ok := EnvOverrideFor("page.lines_per_page"); !ok || env != EnvLinesPerPage {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("general.author"); ok {
		t.Fatalf("author is not overridden")
	}
}

func TestFormatRejectsUnknownType(t *testing.T) {
	cfg := Defaults()
	cfg.Types = map[string]TypeOverride{"montage": {}}
	if _, err := cfg.Format(); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat(domain.DefaultFormat()); err != nil {
		t.Fatalf("default format should validate: %v", err)
	}
	f := domain.DefaultFormat()
	f.LinesPerPage = 3
	f.Types[domain.Paren].Width = 0
	err := ValidateFormat(f)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}
