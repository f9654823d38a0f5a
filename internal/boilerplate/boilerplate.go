// Package boilerplate is the bundled template store: the parameterized file
// trees materialized into user projects, plus the dependency manifest and the
// reference pre-commit configuration.
package boilerplate

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/Entalpic/entaldocs/internal/substitute"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed assets/dependencies.json assets/precommits.yaml
var assetsFS embed.FS

// Entry is one template file: its path relative to the tree root, its raw
// content, and whether substitution applies to the content.
type Entry struct {
	Path   string
	Body   []byte
	Binary bool
}

// remotePrefixes are project subtrees that only make sense when the project
// is hosted remotely. Local-mode materialization excludes them.
var remotePrefixes = []string{
	".github/",
}

// Docs returns the documentation template tree in lexicographic order.
func Docs() ([]Entry, error) {
	return collect("templates/docs")
}

// Project returns the project boilerplate tree in lexicographic order.
// When includeRemote is false, hosting-specific subtrees (CI workflows) are
// excluded.
func Project(includeRemote bool) ([]Entry, error) {
	entries, err := collect("templates/project")
	if err != nil {
		return nil, err
	}
	if includeRemote {
		return entries, nil
	}

	return FilterLocal(entries), nil
}

// FilterLocal drops entries from hosting-specific subtrees, regardless of
// whether the tree came from the embedded store or a remote fetch.
func FilterLocal(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if isRemoteOnly(entry.Path) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func isRemoteOnly(rel string) bool {
	for _, prefix := range remotePrefixes {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// collect reads every file under root into entries sorted by relative path.
// fs.WalkDir already visits lexically; the explicit sort keeps the ordering
// contract independent of traversal details.
func collect(root string) ([]Entry, error) {
	var entries []Entry
	err := fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		body, err := templatesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		rel := strings.TrimPrefix(p, root+"/")
		entries = append(entries, Entry{
			Path:   rel,
			Body:   body,
			Binary: substitute.IsBinary(rel, body),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Dependencies returns the recommended dependency sets keyed by scope, plus
// the scopes in manifest order.
func Dependencies() (map[string][]string, []string, error) {
	raw, err := assetsFS.ReadFile("assets/dependencies.json")
	if err != nil {
		return nil, nil, fmt.Errorf("read dependency manifest: %w", err)
	}

	deps := map[string][]string{}
	if err := json.Unmarshal(raw, &deps); err != nil {
		return nil, nil, fmt.Errorf("parse dependency manifest: %w", err)
	}

	// JSON objects are unordered; recover the manifest order from the raw
	// text so show-deps output is stable.
	var ordered []string
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	if _, err := decoder.Token(); err != nil {
		return nil, nil, fmt.Errorf("parse dependency manifest: %w", err)
	}
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parse dependency manifest: %w", err)
		}
		if key, ok := tok.(string); ok {
			ordered = append(ordered, key)
		}
		var skip json.RawMessage
		if err := decoder.Decode(&skip); err != nil {
			return nil, nil, fmt.Errorf("parse dependency manifest: %w", err)
		}
	}
	return deps, ordered, nil
}

// PreCommitReference returns the bundled pre-commit configuration.
func PreCommitReference() ([]byte, error) {
	raw, err := assetsFS.ReadFile("assets/precommits.yaml")
	if err != nil {
		return nil, fmt.Errorf("read pre-commit reference: %w", err)
	}
	return raw, nil
}
