// Package project discovers metadata about the Python project being
// scaffolded: its name, repository URL, and package layout.
package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/runner"
)

var pyprojectName = regexp.MustCompile(`(?m)^\s*name\s*=\s*['"]([^'"]+)['"]`)

// Name resolves the project name. An explicit value wins; otherwise the name
// from pyproject.toml, then the directory name, is offered as the prompt
// default (or used directly when prompting is disabled).
func Name(explicit, root string, prompt console.Prompter) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	def := ""
	if raw, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		if m := pyprojectName.FindSubmatch(raw); m != nil {
			def = string(m[1])
		}
	}
	if def == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("resolve project root: %w", err)
		}
		def = filepath.Base(abs)
	}

	name, err := prompt.Ask("Project name", def)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}

// RepoURL resolves the repository URL. An explicit value wins; otherwise the
// git remote is normalized to an https URL and offered as the prompt default.
// Detection failures are not fatal: the prompt default is then empty.
func RepoURL(ctx context.Context, explicit string, run *runner.Runner, prompt console.Prompter) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	def := ""
	if remote, err := run.Capture(ctx, "git", "config", "--get", "remote.origin.url"); err == nil {
		def = normalizeRemote(remote)
	}

	url, err := prompt.Ask("Repository URL", def)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(url), nil
}

// normalizeRemote turns a git remote (ssh or https, with or without .git)
// into a browsable https URL.
func normalizeRemote(remote string) string {
	remote = strings.TrimSpace(remote)
	remote = strings.TrimSuffix(remote, ".git")
	if strings.HasPrefix(remote, "https://") || strings.HasPrefix(remote, "http://") {
		return remote
	}
	// git@github.com:org/repo -> https://github.com/org/repo
	if at := strings.Index(remote, "@"); at >= 0 {
		hostAndPath := remote[at+1:]
		if colon := strings.Index(hostAndPath, ":"); colon >= 0 {
			return "https://" + hostAndPath[:colon] + "/" + hostAndPath[colon+1:]
		}
		return "https://" + hostAndPath
	}
	return remote
}

// skippedDirs are never searched for Python files or packages.
var skippedDirs = map[string]struct{}{
	".git":          {},
	".venv":         {},
	"venv":          {},
	".tox":          {},
	".eggs":         {},
	"build":         {},
	"dist":          {},
	"docs":          {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"__pycache__":   {},
}

// HasPythonFiles reports whether root contains at least one .py file outside
// virtual environments and build output.
func HasPythonFiles(root string) (bool, error) {
	found := false
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := skippedDirs[d.Name()]; skip && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".py") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scan for Python files: %w", err)
	}
	return found, nil
}

// DiscoverPackages finds the Python packages to document, expressed relative
// to docsPath/source for use as autoapi directories. Packages are searched
// under root/src first, then root itself; when nothing is found the project
// root is documented as a whole.
func DiscoverPackages(root, docsPath string) ([]string, error) {
	start := root
	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		start = filepath.Join(root, "src")
	}

	var packages []string
	items, err := os.ReadDir(start)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", start, err)
	}
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(start, item.Name(), "__init__.py")); err == nil {
			packages = append(packages, filepath.Join(start, item.Name()))
		}
	}
	if len(packages) == 0 {
		packages = []string{root}
	}

	ref := filepath.Join(docsPath, "source")
	rels := make([]string, 0, len(packages))
	for _, pkg := range packages {
		rel, err := filepath.Rel(ref, pkg)
		if err != nil {
			return nil, fmt.Errorf("relativize package %s: %w", pkg, err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels, nil
}

// PackagesLiteral renders package paths as the Python list literal templates
// expect for autoapi_dirs.
func PackagesLiteral(packages []string) string {
	quoted := make([]string, len(packages))
	for i, pkg := range packages {
		quoted[i] = fmt.Sprintf("%q", pkg)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
