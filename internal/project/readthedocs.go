package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const readTheDocsFile = ".readthedocs.yaml"

// rtdConfig is the ReadTheDocs v2 build configuration we generate.
type rtdConfig struct {
	Version int      `yaml:"version"`
	Build   rtdBuild `yaml:"build"`
}

type rtdBuild struct {
	OS       string            `yaml:"os"`
	Tools    map[string]string `yaml:"tools"`
	Commands []string          `yaml:"commands"`
}

// WriteReadTheDocs writes the ReadTheDocs configuration into root unless one
// already exists. It reports whether a file was written.
func WriteReadTheDocs(root string) (bool, error) {
	path := filepath.Join(root, readTheDocsFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := rtdConfig{
		Version: 2,
		Build: rtdBuild{
			OS:    "ubuntu-22.04",
			Tools: map[string]string{"python": PyVersion(root)},
			Commands: []string{
				"asdf plugin add uv",
				"asdf install uv latest",
				"asdf global uv latest",
				"uv sync",
				"uv run sphinx-build -M html docs/source $READTHEDOCS_OUTPUT",
			},
		},
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("render %s: %w", readTheDocsFile, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", readTheDocsFile, err)
	}
	return true, nil
}

// PyVersion returns the project's Python version as major.minor, read from
// .python-version when present, defaulting to a current release otherwise.
func PyVersion(root string) string {
	raw, err := os.ReadFile(filepath.Join(root, ".python-version"))
	if err != nil {
		return "3.12"
	}
	version := strings.TrimSpace(string(raw))
	if version == "" {
		return "3.12"
	}
	parts := strings.Split(version, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return version
}
