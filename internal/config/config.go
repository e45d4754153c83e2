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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"goscreenwriter/internal/domain"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFormat reports a format that fails schema validation.
var ErrInvalidFormat = errors.New("invalid format")

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int                     `yaml:"config_version"`
	General       GeneralConfig           `yaml:"general"`
	Page          PageConfig              `yaml:"page"`
	Types         map[string]TypeOverride `yaml:"types,omitempty"`
	Editor        EditorConfig            `yaml:"editor"`
	Storage       StorageConfig           `yaml:"storage"`
	Logging       LoggingConfig           `yaml:"logging"`
}

type GeneralConfig struct {
	Author string `yaml:"author"`
}

// PageConfig holds the pagination tunables. Zero values keep the defaults.
type PageConfig struct {
	LinesPerPage     int `yaml:"lines_per_page"`
	HeaderLines      int `yaml:"header_lines"`
	MinActionLines   int `yaml:"min_action_lines"`
	MinDialogueLines int `yaml:"min_dialogue_lines"`
}

// TypeOverride changes selected fields of one element type. Keys of
// AppConfig.Types are type names such as "dialogue".
type TypeOverride struct {
	Indent         *int  `yaml:"indent,omitempty"`
	Width          *int  `yaml:"width,omitempty"`
	SpacingBefore  *int  `yaml:"spacing_before,omitempty"`
	SpacingBetween *int  `yaml:"spacing_between,omitempty"`
	Uppercase      *bool `yaml:"uppercase,omitempty"`
}

type EditorConfig struct {
	UndoMaxBytes       int `yaml:"undo_max_bytes"`
	PaginateIntervalMs int `yaml:"paginate_interval_ms"`
}

type StorageConfig struct {
	// IndexPath is the SQLite search index; empty places it next to the config file.
	IndexPath   string `yaml:"index_path"`
	Backups     int    `yaml:"backups"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	f := domain.DefaultFormat()
	return AppConfig{
		ConfigVersion: 1,
		Page: PageConfig{
			LinesPerPage:     f.LinesPerPage,
			HeaderLines:      f.HeaderLines,
			MinActionLines:   f.MinActionLines,
			MinDialogueLines: f.MinDialogueLines,
		},
		Editor:  EditorConfig{UndoMaxBytes: 5 << 20, PaginateIntervalMs: 500},
		Storage: StorageConfig{Backups: 5},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "GSW_CONFIG"
	EnvAuthor           = "GSW_AUTHOR"
	EnvLinesPerPage     = "GSW_LINES_PER_PAGE"
	EnvUndoMaxBytes     = "GSW_UNDO_MAX_BYTES"
	EnvPaginateInterval = "GSW_PAGINATE_INTERVAL_MS"
	EnvIndexPath        = "GSW_INDEX_PATH"
	EnvPostgresDSN      = "GSW_PG_DSN"
	EnvLogLevel         = "GSW_LOG_LEVEL"
	EnvLogFormat        = "GSW_LOG_FORMAT"
	EnvLogSource        = "GSW_LOG_SOURCE"
	EnvLogFile          = "GSW_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GSW_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenwriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenwriter")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenwriter")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit file. A missing file yields the defaults;
// a malformed one is an error.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = filepath.Join(filepath.Dir(path), "index.db")
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path, creating the directory.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Author); s != "" {
		dst.General.Author = s
	}
	mergeInt(&dst.Page.LinesPerPage, src.Page.LinesPerPage)
	mergeInt(&dst.Page.HeaderLines, src.Page.HeaderLines)
	mergeInt(&dst.Page.MinActionLines, src.Page.MinActionLines)
	mergeInt(&dst.Page.MinDialogueLines, src.Page.MinDialogueLines)
	if len(src.Types) > 0 {
		if dst.Types == nil {
			dst.Types = map[string]TypeOverride{}
		}
		for k, v := range src.Types {
			dst.Types[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	mergeInt(&dst.Editor.UndoMaxBytes, src.Editor.UndoMaxBytes)
	mergeInt(&dst.Editor.PaginateIntervalMs, src.Editor.PaginateIntervalMs)
	if s := strings.TrimSpace(src.Storage.IndexPath); s != "" {
		dst.Storage.IndexPath = s
	}
	mergeInt(&dst.Storage.Backups, src.Storage.Backups)
	if s := strings.TrimSpace(src.Storage.PostgresDSN); s != "" {
		dst.Storage.PostgresDSN = s
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func envBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAuthor)); v != "" {
		cfg.General.Author = v
	}
	envInt(EnvLinesPerPage, &cfg.Page.LinesPerPage)
	envInt(EnvUndoMaxBytes, &cfg.Editor.UndoMaxBytes)
	envInt(EnvPaginateInterval, &cfg.Editor.PaginateIntervalMs)
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Storage.IndexPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.author":              EnvAuthor,
	"page.lines_per_page":         EnvLinesPerPage,
	"editor.undo_max_bytes":       EnvUndoMaxBytes,
	"editor.paginate_interval_ms": EnvPaginateInterval,
	"storage.index_path":          EnvIndexPath,
	"storage.postgres_dsn":        EnvPostgresDSN,
	"logging.level":               EnvLogLevel,
	"logging.format":              EnvLogFormat,
	"logging.source":              EnvLogSource,
	"logging.file":                EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// PaginateInterval returns the pagination throttle as a duration.
func (e EditorConfig) PaginateInterval() time.Duration {
	if e.PaginateIntervalMs <= 0 {
		return time.Duration(Defaults().Editor.PaginateIntervalMs) * time.Millisecond
	}
	return time.Duration(e.PaginateIntervalMs) * time.Millisecond
}
