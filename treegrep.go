// Package treegrep drives the structural search and rewrite engine across
// files and directories. The engine itself is single-threaded per call;
// this facade fans out per file, since compiled patterns and rules are
// immutable and safe to share read-only across workers.
package treegrep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/treegrep/treegrep/engine"
	"github.com/treegrep/treegrep/syntax"
)

// Options configures a multi-file run.
type Options struct {
	Config   engine.Config
	Workers  int  // worker count; <= 0 means GOMAXPROCS
	Progress bool // render a progress bar for multi-file runs
}

// FileMatches holds one file's search results.
type FileMatches struct {
	Path      string
	Matches   []engine.Match
	Truncated bool
}

// FileRewrite holds one file's rewrite outcome.
type FileRewrite struct {
	Path            string
	Output          string
	NumReplacements int
	HasChanges      bool
}

// CollectFiles expands paths (files or directories) into the files whose
// extension maps to the given language.
func CollectFiles(paths []string, lang syntax.Language) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			if fileLang, ok := syntax.FromPath(p); ok && fileLang == lang {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// Search runs a compiled pattern over every file reachable from paths.
// Files that fail to parse are logged and skipped, never fatal.
func Search(ctx context.Context, logger *zap.Logger, opts Options, pattern *engine.Pattern, paths []string) ([]FileMatches, error) {
	files, err := CollectFiles(paths, pattern.Language())
	if err != nil {
		return nil, err
	}

	results := make([]*FileMatches, len(files))
	err = forEachFile(ctx, opts, files, func(i int, path string) {
		source, err := os.ReadFile(path)
		if err != nil {
			logError(logger, "failed to read file", path, err)
			return
		}

		parser, err := syntax.NewParser(pattern.Language())
		if err != nil {
			logError(logger, "failed to create parser", path, err)
			return
		}
		parsed, err := parser.Parse(ctx, string(source))
		if err != nil {
			logError(logger, "failed to parse file", path, err)
			return
		}

		matches, truncated := engine.FindAll(opts.Config, pattern, parsed)
		if len(matches) == 0 {
			return
		}
		results[i] = &FileMatches{Path: path, Matches: matches, Truncated: truncated}
	})
	if err != nil {
		return nil, err
	}

	var out []FileMatches
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Rewrite applies rules to every file reachable from paths. Rules may
// target different languages: each language collects and parses its own
// files under its own grammar, and a file only ever sees the rules for its
// language. When write is true, changed files are rewritten in place with
// their original mode.
func Rewrite(ctx context.Context, logger *zap.Logger, opts Options, ruleSet []*engine.RewriteRule, paths []string, write bool) ([]FileRewrite, error) {
	if len(ruleSet) == 0 {
		return nil, nil
	}

	var langs []syntax.Language
	byLang := make(map[syntax.Language][]*engine.RewriteRule)
	for _, rule := range ruleSet {
		lang := rule.Pattern().Language()
		if _, ok := byLang[lang]; !ok {
			langs = append(langs, lang)
		}
		byLang[lang] = append(byLang[lang], rule)
	}

	rewriter := engine.NewRewriter(opts.Config)
	seen := make(map[string]bool)
	var out []FileRewrite
	for _, lang := range langs {
		collected, err := CollectFiles(paths, lang)
		if err != nil {
			return nil, err
		}

		// Explicitly named files survive collection for every language;
		// route each to its detected language's rules, once.
		var files []string
		for _, f := range collected {
			if fileLang, ok := syntax.FromPath(f); ok && fileLang != lang {
				continue
			}
			if seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
		}

		rulesForLang := byLang[lang]
		results := make([]*FileRewrite, len(files))
		err = forEachFile(ctx, opts, files, func(i int, path string) {
			source, err := os.ReadFile(path)
			if err != nil {
				logError(logger, "failed to read file", path, err)
				return
			}

			res, err := rewriter.ApplyAll(ctx, rulesForLang, string(source))
			if err != nil {
				logError(logger, "failed to rewrite file", path, err)
				return
			}
			if !res.HasChanges {
				return
			}

			if write {
				mode := os.FileMode(0o644)
				if info, err := os.Stat(path); err == nil {
					mode = info.Mode()
				}
				if err := os.WriteFile(path, []byte(res.Output), mode); err != nil {
					logError(logger, "failed to write file", path, err)
					return
				}
			}

			results[i] = &FileRewrite{
				Path:            path,
				Output:          res.Output,
				NumReplacements: res.NumReplacements,
				HasChanges:      res.HasChanges,
			}
		})
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r != nil {
				out = append(out, *r)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// forEachFile runs fn over files with a bounded worker pool, honoring
// cancellation between files.
func forEachFile(ctx context.Context, opts Options, files []string, fn func(i int, path string)) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress && len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
		)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i, path)
			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, path)
	}
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	return ctx.Err()
}

func logError(logger *zap.Logger, msg, path string, err error) {
	if logger != nil {
		logger.Warn(msg, zap.String("path", path), zap.Error(err))
	}
}
