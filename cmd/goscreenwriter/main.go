/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Go Screenwriter")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  goscreenwriter version|-v|--version               Show version")
	fmt.Fprintln(w, "  goscreenwriter new <file> [heading]               Create a new screenplay")
	fmt.Fprintln(w, "  goscreenwriter info <file>                        Print pages, scenes and characters")
	fmt.Fprintln(w, "  goscreenwriter lint <file>                        Report formatting problems")
	fmt.Fprintln(w, "  goscreenwriter reflow <file>                      Rewrap with the configured format and save")
	fmt.Fprintln(w, "  goscreenwriter pdf [-guides] [-pages 1,2] <file> [out.pdf]")
	fmt.Fprintln(w, "  goscreenwriter png [-guides] [-pages 1,2] <file> [outdir]")
	fmt.Fprintln(w, "  goscreenwriter index [-remove] [<file>...]        Index files, drop them, or list indexed files")
	fmt.Fprintln(w, "  goscreenwriter scenes <file>                      List indexed scenes with pages")
	fmt.Fprintln(w, "  goscreenwriter search [flags] <text>              Search the index (-published searches Postgres)")
	fmt.Fprintln(w, "  goscreenwriter publish <file>                     Publish a revision to Postgres")
	fmt.Fprintln(w, "  goscreenwriter revisions <file>                   List published revisions")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	sess := &crash.Session{}
	defer crash.Recover(sess)

	a := newApp(cfg, os.Stdout, sess)
	if err := a.run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(err)
			usage(os.Stdout)
			os.Exit(2)
		}
		a.log.Error("command failed", "err", err)
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
