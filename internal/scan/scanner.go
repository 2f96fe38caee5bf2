// Package scan discovers session files for every enabled client. It is
// pure discovery: paths in, file lists out, no parsing.
package scan

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tokscale/tokscale/internal/clients"
)

// File is one discovered session file. Headless marks files found under
// a headless capture root.
type File struct {
	Path     string
	Headless bool
}

// Result maps client ids to their discovered files. OpenCodeDB carries
// the v1.2+ message database path when it exists.
type Result struct {
	Files      map[string][]File
	OpenCodeDB string
}

type task struct {
	client   string
	root     string
	glob     string
	match    func(string) bool
	headless bool
}

// Scan walks every enabled client's directories in parallel. Missing or
// unreadable roots contribute nothing; per-file errors never abort a
// walk.
func Scan(ctx context.Context, home string, ids []string) Result {
	res := Result{Files: make(map[string][]File, len(ids))}

	var tasks []task
	for _, id := range ids {
		def, ok := clients.ByID(id)
		if !ok {
			log.Printf("[scan] unknown client %q skipped", id)
			continue
		}
		res.Files[def.ID] = nil
		tasks = append(tasks, buildTasks(home, def)...)

		if def.ID == clients.OpenCode {
			if db := clients.OpenCodeDBPath(home); fileExists(db) {
				res.OpenCodeDB = db
			}
		}
	}

	type hit struct {
		client string
		file   File
	}

	var wg sync.WaitGroup
	results := make(chan hit, 256)

	for _, tk := range tasks {
		wg.Add(1)
		go func(tk task) {
			defer wg.Done()
			walkTask(ctx, tk, func(f File) {
				results <- hit{client: tk.client, file: f}
			})
		}(tk)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for h := range results {
		res.Files[h.client] = append(res.Files[h.client], h.file)
	}

	for id, files := range res.Files {
		if len(files) > 0 {
			log.Printf("[scan] %s: %d file(s)", id, len(files))
		}
	}
	return res
}

func buildTasks(home string, def clients.Definition) []task {
	type root struct {
		path     string
		headless bool
	}
	roots := []root{{path: def.ResolvePath(home)}}
	for _, extra := range def.ExtraPaths(home) {
		roots = append(roots, root{path: extra})
	}
	for _, legacy := range def.LegacyPaths(home) {
		roots = append(roots, root{path: legacy})
	}
	if def.Headless {
		for _, hr := range HeadlessRoots(home) {
			roots = append(roots, root{path: filepath.Join(hr, def.ID), headless: true})
		}
	}

	tasks := make([]task, 0, len(roots))
	for _, r := range roots {
		tasks = append(tasks, task{
			client:   def.ID,
			root:     r.path,
			glob:     def.Glob,
			match:    def.Match,
			headless: r.headless,
		})
	}
	return tasks
}

func walkTask(ctx context.Context, tk task, emit func(File)) {
	if _, err := os.Stat(tk.root); err != nil {
		return
	}
	_ = filepath.WalkDir(tk.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		ok, globErr := filepath.Match(tk.glob, d.Name())
		if globErr != nil || !ok {
			return nil
		}
		if tk.match != nil && !tk.match(path) {
			return nil
		}
		emit(File{Path: path, Headless: tk.headless})
		return nil
	})
}

// HeadlessRoots returns the directories scanned for headless capture
// output: $TOKSCALE_HEADLESS_DIR overrides both fixed roots.
func HeadlessRoots(home string) []string {
	if v := os.Getenv("TOKSCALE_HEADLESS_DIR"); v != "" {
		return []string{v}
	}
	return []string{
		filepath.Join(home, ".config", "tokscale", "headless"),
		filepath.Join(home, "Library", "Application Support", "tokscale", "headless"),
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
