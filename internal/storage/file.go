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
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

const (
	// MetaDirName holds per-directory backups next to the script files.
	MetaDirName    = ".gsw"
	BackupsDirName = "backups"
	// FileExt is the conventional screenplay file extension.
	FileExt = ".gsw"

	stampLayout = "20060102-150405.000"
)

var ErrExists = errors.New("file already exists")

// ScriptHandle tracks one screenplay file on disk.
// Backups is the number of timestamped backups kept; zero or less keeps all.
type ScriptHandle struct {
	Path    string
	Backups int
}

// BackupDir returns the directory holding backups of h.Path.
func (h *ScriptHandle) BackupDir() string {
	return filepath.Join(filepath.Dir(h.Path), MetaDirName, BackupsDirName)
}

// Create writes text to a new file at path. It refuses to overwrite.
func Create(path, text string) (*ScriptHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create script dir: %w", err)
	}
	h := &ScriptHandle{Path: path}
	if err := h.Save(text); err != nil {
		return nil, err
	}
	return h, nil
}

// Open reads the script at path. If the file is missing or its header is
// unreadable, the newest backup is used instead and fromBackup is true.
func Open(path string) (h *ScriptHandle, text string, fromBackup bool, err error) {
	h = &ScriptHandle{Path: path}
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	b, rerr := os.ReadFile(path)
	if rerr == nil {
		_, _, derr := script.Decode(string(b))
		if derr == nil {
			return h, string(b), false, nil
		}
		rerr = derr
	}
	bt, berr := h.latestBackup()
	if berr != nil {
		return nil, "", false, fmt.Errorf("open script: %w; backup attempt: %v", rerr, berr)
	}
	l.Warn("script unreadable, using latest backup", slog.Any("err", rerr))
	return h, bt, true, nil
}

// Save replaces the file with text. The previous version, if any, is copied
// to a timestamped backup first and old backups are pruned to h.Backups.
func (h *ScriptHandle) Save(text string) error {
	if h == nil || h.Path == "" {
		return errors.New("invalid ScriptHandle: missing path")
	}
	bdir := h.BackupDir()
	if _, statErr := os.Stat(h.Path); statErr == nil {
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), time.Now().Format(stampLayout))
		if err := copyFile(h.Path, filepath.Join(bdir, bname)); err != nil {
			return fmt.Errorf("backup current script: %w", err)
		}
	}

	// Transactional write: temp file in the same directory, then rename over target.
	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, []byte(text)); err != nil {
		return fmt.Errorf("write temp script: %w", err)
	}
	if err := os.Rename(temp, h.Path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace script: %w", err)
	}
	if h.Backups > 0 {
		if _, err := h.PruneBackups(h.Backups); err != nil {
			applog.WithComponent("storage").Warn("prune backups failed", slog.String("path", h.Path), slog.Any("err", err))
		}
	}
	return nil
}

// SaveAs writes text to newPath and retargets the handle.
func (h *ScriptHandle) SaveAs(newPath, text string) error {
	if strings.TrimSpace(newPath) == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create script dir: %w", err)
	}
	h.Path = newPath
	return h.Save(text)
}

// ListBackups lists the backup files of h, oldest first.
func (h *ScriptHandle) ListBackups() ([]string, error) {
	ents, err := os.ReadDir(h.BackupDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(h.Path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(h.BackupDir(), name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// PruneBackups deletes all but the newest keep backups and returns how many
// were removed.
func (h *ScriptHandle) PruneBackups(keep int) (int, error) {
	all, err := h.ListBackups()
	if err != nil || len(all) <= keep {
		return 0, err
	}
	n := 0
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (h *ScriptHandle) latestBackup() (string, error) {
	all, err := h.ListBackups()
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", errors.New("no backups found")
	}
	b, err := os.ReadFile(all[len(all)-1])
	if err != nil {
		return "", fmt.Errorf("read latest backup: %w", err)
	}
	return string(b), nil
}

// AutosaveCrash writes text to a crash file in the backups directory and
// returns its path. It never touches the script file itself.
func AutosaveCrash(h *ScriptHandle, text string) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("nil ScriptHandle")
	}
	if err := os.MkdirAll(h.BackupDir(), 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	name := fmt.Sprintf("%s.crash-%s%s", filepath.Base(h.Path), time.Now().Format(stampLayout), FileExt)
	path := filepath.Join(h.BackupDir(), name)
	if err := writeFileSync(path, []byte(text)); err != nil {
		return "", fmt.Errorf("write crash autosave: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
