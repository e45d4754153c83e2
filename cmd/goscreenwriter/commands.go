/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/editor"
	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/version"
)

var (
	errUsage      = errors.New("invalid usage")
	errLintIssues = errors.New("lint found problems")
)

const keepSnapshots = 10

type app struct {
	cfg  config.AppConfig
	out  io.Writer
	log  *slog.Logger
	sess *crash.Session
}

func newApp(cfg config.AppConfig, out io.Writer, sess *crash.Session) *app {
	if sess == nil {
		sess = &crash.Session{}
	}
	return &app{cfg: cfg, out: out, log: applog.WithComponent("cli"), sess: sess}
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func (a *app) run(args []string) error {
	if len(args) == 0 {
		return usageErr("missing command")
	}
	ctx := context.Background()
	a.log.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)-1))
	rest := args[1:]
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(a.out, "Go Screenwriter")
		fmt.Fprintln(a.out, version.String())
		return nil
	case "new":
		return a.cmdNew(rest)
	case "info":
		return a.cmdInfo(rest)
	case "lint":
		return a.cmdLint(rest)
	case "reflow":
		return a.cmdReflow(rest)
	case "pdf":
		return a.cmdPDF(rest)
	case "png":
		return a.cmdPNG(rest)
	case "index":
		return a.cmdIndex(ctx, rest)
	case "scenes":
		return a.cmdScenes(ctx, rest)
	case "search":
		return a.cmdSearch(ctx, rest)
	case "publish":
		return a.cmdPublish(ctx, rest)
	case "revisions":
		return a.cmdRevisions(ctx, rest)
	}
	return usageErr("unknown command %q", args[0])
}

func (a *app) format() (domain.Format, error) {
	f, err := a.cfg.Format()
	if err != nil {
		return domain.Format{}, fmt.Errorf("page format: %w", err)
	}
	return f, nil
}

func (a *app) editorOptions(f *domain.Format) editor.Options {
	return editor.Options{
		Format:           f,
		UndoMaxBytes:     a.cfg.Editor.UndoMaxBytes,
		PaginateInterval: a.cfg.Editor.PaginateInterval(),
	}
}

// openScript loads path into an editor and registers it with the crash session.
func (a *app) openScript(path string) (*storage.ScriptHandle, *editor.Editor, error) {
	f, err := a.format()
	if err != nil {
		return nil, nil, err
	}
	h, text, fromBackup, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	h.Backups = a.cfg.Storage.Backups
	if fromBackup {
		fmt.Fprintf(a.out, "warning: %s was unreadable, loaded the latest backup\n", path)
	}
	ed, warns, err := editor.Load(text, a.editorOptions(&f))
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warns {
		a.log.Warn("load warning", slog.String("path", path), slog.String("warning", w.String()))
	}
	a.sess.Handle = h
	a.sess.Text = ed.Serialize
	return h, ed, nil
}

func scriptTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *app) cmdNew(args []string) error {
	if len(args) < 1 {
		return usageErr("new requires <file>")
	}
	path := args[0]
	if filepath.Ext(path) == "" {
		path += storage.FileExt
	}
	f, err := a.format()
	if err != nil {
		return err
	}
	ed := editor.New(a.editorOptions(&f))
	if len(args) > 1 {
		for _, r := range strings.Join(args[1:], " ") {
			if err := ed.Execute(editor.Command{Kind: editor.InsertChar, Char: r}); err != nil {
				return err
			}
		}
	}
	h, err := storage.Create(path, ed.Serialize())
	if err != nil {
		return err
	}
	a.log.Info("script created", slog.String("path", h.Path))
	fmt.Fprintln(a.out, "Created screenplay at", h.Path)
	return nil
}

func (a *app) cmdInfo(args []string) error {
	if len(args) != 1 {
		return usageErr("info requires <file>")
	}
	_, ed, err := a.openScript(args[0])
	if err != nil {
		return err
	}
	ls := ed.Lines()
	scenes := script.Scenes(ls)
	chars := script.Characters(ls)
	fmt.Fprintf(a.out, "Title: %s\n", scriptTitle(args[0]))
	fmt.Fprintf(a.out, "Lines: %d\n", len(ls))
	fmt.Fprintf(a.out, "Pages: %d\n", ed.PageCount())
	fmt.Fprintf(a.out, "Scenes: %d\n", len(scenes))
	for _, s := range scenes {
		fmt.Fprintf(a.out, "  %3d. p%-3d %s\n", s.Number, ed.PageForLine(s.Line), s.Heading)
	}
	fmt.Fprintf(a.out, "Characters: %d\n", len(chars))
	for _, c := range chars {
		fmt.Fprintf(a.out, "  %-20s %d speeches\n", c.Name, c.Speeches)
	}
	return nil
}

func (a *app) cmdLint(args []string) error {
	if len(args) != 1 {
		return usageErr("lint requires <file>")
	}
	_, ed, err := a.openScript(args[0])
	if err != nil {
		return err
	}
	f := ed.Format()
	issues := script.Lint(ed.Lines(), &f)
	for _, is := range issues {
		fmt.Fprintf(a.out, "%s:%d: %s\n", args[0], is.Line+1, is.Reason)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %d", errLintIssues, len(issues))
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func (a *app) cmdReflow(args []string) error {
	if len(args) != 1 {
		return usageErr("reflow requires <file>")
	}
	h, ed, err := a.openScript(args[0])
	if err != nil {
		return err
	}
	if err := h.Save(ed.Serialize()); err != nil {
		return err
	}
	ed.MarkSaved()
	fmt.Fprintf(a.out, "Reflowed %s: %d lines, %d pages\n", h.Path, len(ed.Lines()), ed.PageCount())
	return nil
}

func parsePages(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, usageErr("bad page number %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

type renderFlags struct {
	guides bool
	pages  []int
	args   []string
}

func parseRenderFlags(name string, args []string) (renderFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	guides := fs.Bool("guides", false, "draw margin guides")
	pages := fs.String("pages", "", "comma separated page numbers")
	if err := fs.Parse(args); err != nil {
		return renderFlags{}, usageErr("%s: %v", name, err)
	}
	ps, err := parsePages(*pages)
	if err != nil {
		return renderFlags{}, err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return renderFlags{}, usageErr("%s requires <file> [out]", name)
	}
	return renderFlags{guides: *guides, pages: ps, args: fs.Args()}, nil
}

func (a *app) cmdPDF(args []string) error {
	rf, err := parseRenderFlags("pdf", args)
	if err != nil {
		return err
	}
	_, ed, err := a.openScript(rf.args[0])
	if err != nil {
		return err
	}
	out := strings.TrimSuffix(rf.args[0], filepath.Ext(rf.args[0])) + ".pdf"
	if len(rf.args) > 1 {
		out = rf.args[1]
	}
	f := ed.Format()
	opt := export.PDFOptions{
		Title:         scriptTitle(rf.args[0]),
		Author:        a.cfg.General.Author,
		IncludeGuides: rf.guides,
		Pages:         rf.pages,
	}
	if err := export.ExportPDF(ed.Lines(), &f, ed.Pages(), out, opt); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

func (a *app) cmdPNG(args []string) error {
	rf, err := parseRenderFlags("png", args)
	if err != nil {
		return err
	}
	_, ed, err := a.openScript(rf.args[0])
	if err != nil {
		return err
	}
	dir := strings.TrimSuffix(rf.args[0], filepath.Ext(rf.args[0])) + "-pages"
	if len(rf.args) > 1 {
		dir = rf.args[1]
	}
	f := ed.Format()
	files, err := export.ExportPNGPages(ed.Lines(), &f, ed.Pages(), dir, export.PNGOptions{IncludeGuides: rf.guides, Pages: rf.pages})
	if err != nil {
		return err
	}
	for _, p := range files {
		fmt.Fprintln(a.out, "Wrote", p)
	}
	return nil
}

func (a *app) indexPath() (string, error) {
	p := strings.TrimSpace(a.cfg.Storage.IndexPath)
	if p == "" {
		return "", errors.New("no index path configured")
	}
	return p, nil
}

func (a *app) cmdIndex(ctx context.Context, args []string) error {
	idx, err := a.indexPath()
	if err != nil {
		return err
	}
	if rebuilt, err := storage.DetectAndRebuildIndex(ctx, idx); err != nil {
		return err
	} else if rebuilt {
		fmt.Fprintln(a.out, "warning: index was damaged and has been recreated; re-index your scripts")
	}
	if len(args) > 0 && args[0] == "-remove" {
		for _, p := range args[1:] {
			if err := storage.RemoveScript(ctx, idx, p); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Removed", p)
		}
		return nil
	}
	if len(args) == 0 {
		list, err := storage.ListScripts(ctx, idx)
		if err != nil {
			return err
		}
		for _, s := range list {
			fmt.Fprintf(a.out, "%s\t%d pages\t%s\n", s.Path, s.Pages, s.IndexedAt.Local().Format(time.DateTime))
		}
		return nil
	}
	for _, p := range args {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		_, ed, err := a.openScript(abs)
		if err != nil {
			return err
		}
		if err := storage.IndexScript(ctx, idx, abs, ed.Lines(), ed.Pages()); err != nil {
			return err
		}
		if err := storage.SaveScriptSnapshot(ctx, idx, abs, ed.Serialize(), time.Now()); err != nil {
			return err
		}
		if _, err := storage.PruneOldScriptSnapshots(ctx, idx, abs, keepSnapshots); err != nil {
			a.log.Warn("prune snapshots failed", slog.String("path", abs), slog.Any("err", err))
		}
		fmt.Fprintf(a.out, "Indexed %s (%d pages)\n", abs, ed.PageCount())
	}
	return nil
}

func (a *app) cmdScenes(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("scenes requires <file>")
	}
	idx, err := a.indexPath()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	scenes, err := storage.ListScenes(ctx, idx, abs)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		fmt.Fprintln(a.out, "no indexed scenes; run index first")
		return nil
	}
	for _, s := range scenes {
		fmt.Fprintf(a.out, "%3d. p%-3d %s\n", s.Number, s.Page, s.Heading)
	}
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	types := fs.String("type", "", "comma separated element types")
	character := fs.String("character", "", "speaker name")
	scriptPath := fs.String("script", "", "restrict to one file")
	scene := fs.Int("scene", 0, "scene number")
	from := fs.Int("from", 0, "first page")
	to := fs.Int("to", 0, "last page")
	limit := fs.Int("limit", 50, "maximum results")
	published := fs.Bool("published", false, "search published revisions in Postgres")
	if err := fs.Parse(args); err != nil {
		return usageErr("search: %v", err)
	}
	text := strings.Join(fs.Args(), " ")

	if *published {
		return a.searchPublished(ctx, text, *scriptPath, *limit)
	}

	idx, err := a.indexPath()
	if err != nil {
		return err
	}
	q := storage.SearchQuery{
		Text:      text,
		Character: *character,
		Scene:     *scene,
		PageFrom:  *from,
		PageTo:    *to,
		Limit:     *limit,
	}
	if *types != "" {
		for _, t := range strings.Split(*types, ",") {
			name := strings.ToLower(strings.TrimSpace(t))
			if _, ok := domain.ParseTypeName(name); !ok {
				return usageErr("unknown element type %q", t)
			}
			q.Types = append(q.Types, name)
		}
	}
	if *scriptPath != "" {
		abs, err := filepath.Abs(*scriptPath)
		if err != nil {
			return err
		}
		q.Script = abs
	}
	res, err := storage.Search(ctx, idx, q)
	if err != nil {
		return err
	}
	for _, r := range res {
		fmt.Fprintf(a.out, "%s:%d: p%d [%s] %s\n", r.Script, r.Line+1, r.Page, r.Type, r.Text)
	}
	if len(res) == 0 {
		fmt.Fprintln(a.out, "no matches")
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (*backend.Store, error) {
	return backend.Open(ctx, a.cfg.Storage.PostgresDSN)
}

func (a *app) searchPublished(ctx context.Context, text, path string, limit int) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	hits, err := st.SearchRevisions(ctx, backend.RevisionQuery{Text: text, Path: path, Limit: limit})
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(a.out, "%s r%d (%d pages): %s\n", h.Path, h.Number, h.Pages, h.Snippet)
	}
	if len(hits) == 0 {
		fmt.Fprintln(a.out, "no matches")
	}
	return nil
}

func (a *app) cmdPublish(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("publish requires <file>")
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	_, ed, err := a.openScript(abs)
	if err != nil {
		return err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	rev, err := st.Publish(ctx, backend.PublishRequest{
		Path:   abs,
		Title:  scriptTitle(abs),
		Author: a.cfg.General.Author,
		Text:   ed.Serialize(),
		Pages:  ed.PageCount(),
		Lines:  len(ed.Lines()),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Published %s revision %d (%d pages)\n", abs, rev.Number, rev.Pages)
	return nil
}

func (a *app) cmdRevisions(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("revisions requires <file>")
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	sp, err := st.ScreenplayByPath(ctx, args[0])
	if err != nil {
		return err
	}
	revs, err := st.ListRevisions(ctx, sp.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", sp.Title, sp.ID)
	for _, r := range revs {
		fmt.Fprintf(a.out, "  r%-4d %s  %3d pages  %s\n", r.Number, r.CreatedAt.Local().Format(time.DateTime), r.Pages, r.Author)
	}
	return nil
}
