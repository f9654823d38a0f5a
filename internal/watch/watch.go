// Package watch rebuilds the documentation when watched source files change.
//
// A single goroutine consumes fsnotify events, filters them through include
// and exclude patterns, and fires the rebuild callback after a short debounce
// so editor save bursts trigger one build instead of many. The loop ends when
// its context is canceled.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPatterns match Python sources and hand-written reStructuredText.
var DefaultPatterns = []string{
	`.+/src/.+\.py`,
	`.+/source/.+\.rst`,
}

// excludePatterns drop files whose changes are side effects of a build, so a
// build never re-triggers itself. AutoAPI rewrites its intermediate .rst
// files on every run.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/autoapi/.+\.rst$`),
	regexp.MustCompile(`/build/`),
}

// skippedDirs are never added to the watch set.
var skippedDirs = map[string]struct{}{
	".git":         {},
	".venv":        {},
	"venv":         {},
	"node_modules": {},
	"__pycache__":  {},
	".tox":         {},
}

const debounceDelay = 300 * time.Millisecond

// Watcher watches a directory tree and invokes OnChange for matching edits.
type Watcher struct {
	patterns []*regexp.Regexp

	// OnChange runs on the watch goroutine after a debounced match. Errors
	// are reported through OnError and do not stop the watch.
	OnChange func()
	// OnError receives non-fatal watcher errors; nil means they are dropped.
	OnError func(error)
}

// New compiles the include patterns (semicolon-separated regexes in their
// raw form) into a Watcher.
func New(patterns []string) (*Watcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile watch pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Watcher{patterns: compiled}, nil
}

// Matches reports whether path (slash-separated, absolute) should trigger a
// rebuild.
func (w *Watcher) Matches(path string) bool {
	path = filepath.ToSlash(path)
	for _, ex := range excludePatterns {
		if ex.MatchString(path) {
			return false
		}
	}
	for _, re := range w.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Run watches root recursively until ctx is canceled.
func (w *Watcher) Run(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start filesystem watcher: %w", err)
	}
	defer func() {
		if cerr := fsw.Close(); cerr != nil {
			w.report(fmt.Errorf("close watcher: %w", cerr))
		}
	}()

	if err := w.addTree(fsw, root); err != nil {
		return err
	}

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)
			if w.Matches(event.Name) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if pending && !debounce.Stop() {
					<-debounce.C
				}
				debounce.Reset(debounceDelay)
				pending = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.report(err)

		case <-debounce.C:
			pending = false
			if w.OnChange != nil {
				w.OnChange()
			}
		}
	}
}

// handleEvent keeps the watch set current as directories appear.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create == 0 {
		return
	}
	info, err := os.Lstat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if _, skip := skippedDirs[filepath.Base(event.Name)]; skip {
		return
	}
	if err := w.addTree(fsw, event.Name); err != nil {
		w.report(err)
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := skippedDirs[d.Name()]; skip && p != root {
			return fs.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register watch tree %s: %w", root, err)
	}
	return nil
}

func (w *Watcher) report(err error) {
	if w.OnError != nil && err != nil {
		w.OnError(err)
	}
}
