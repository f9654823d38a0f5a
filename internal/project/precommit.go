package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const preCommitFile = ".pre-commit-config.yaml"

// preCommitConfig models the parts of a pre-commit configuration this tool
// manages. Unknown top-level keys survive the round trip via Rest.
type preCommitConfig struct {
	Repos []map[string]any `yaml:"repos"`
	Rest  map[string]any   `yaml:",inline"`
}

// WriteOrUpdatePreCommit writes the reference pre-commit configuration into
// root. An existing file is merged instead of replaced: reference repos
// override same-URL entries and new ones are appended, while repos the user
// added on their own are kept.
func WriteOrUpdatePreCommit(root string, reference []byte) error {
	path := filepath.Join(root, preCommitFile)

	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := os.WriteFile(path, reference, 0o644); werr != nil {
			return fmt.Errorf("write %s: %w", preCommitFile, werr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", preCommitFile, err)
	}

	merged, err := mergePreCommit(existing, reference)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, merged, 0o644); err != nil {
		return fmt.Errorf("update %s: %w", preCommitFile, err)
	}
	return nil
}

func mergePreCommit(existing, reference []byte) ([]byte, error) {
	var current, ref preCommitConfig
	if err := yaml.Unmarshal(existing, &current); err != nil {
		return nil, fmt.Errorf("parse existing %s: %w", preCommitFile, err)
	}
	if err := yaml.Unmarshal(reference, &ref); err != nil {
		return nil, fmt.Errorf("parse reference pre-commit config: %w", err)
	}

	index := make(map[string]int, len(current.Repos))
	for i, repo := range current.Repos {
		if u, ok := repo["repo"].(string); ok {
			index[u] = i
		}
	}
	for _, repo := range ref.Repos {
		u, ok := repo["repo"].(string)
		if !ok {
			continue
		}
		if i, seen := index[u]; seen {
			current.Repos[i] = repo
			continue
		}
		current.Repos = append(current.Repos, repo)
	}

	merged, err := yaml.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("render merged %s: %w", preCommitFile, err)
	}
	return merged, nil
}
