package project

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const referenceConfig = `repos:
  - repo: https://github.com/astral-sh/ruff-pre-commit
    rev: v0.8.0
    hooks:
      - id: ruff
      - id: ruff-format
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v5.0.0
    hooks:
      - id: trailing-whitespace
`

func TestWriteOrUpdatePreCommitCreatesFile(t *testing.T) {
	root := t.TempDir()

	if err := WriteOrUpdatePreCommit(root, []byte(referenceConfig)); err != nil {
		t.Fatalf("WriteOrUpdatePreCommit returned error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, ".pre-commit-config.yaml"))
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if string(got) != referenceConfig {
		t.Fatalf("fresh config differs from reference:\n%s", got)
	}
}

func TestWriteOrUpdatePreCommitMerges(t *testing.T) {
	root := t.TempDir()
	existing := `default_language_version:
  python: python3.12
repos:
  - repo: https://github.com/astral-sh/ruff-pre-commit
    rev: v0.1.0
    hooks:
      - id: ruff
  - repo: https://github.com/user/custom-hooks
    rev: v1.0.0
    hooks:
      - id: custom
`
	path := filepath.Join(root, ".pre-commit-config.yaml")
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatalf("seed existing config: %v", err)
	}

	if err := WriteOrUpdatePreCommit(root, []byte(referenceConfig)); err != nil {
		t.Fatalf("WriteOrUpdatePreCommit returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read merged config: %v", err)
	}
	var merged preCommitConfig
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		t.Fatalf("parse merged config: %v", err)
	}

	revs := map[string]string{}
	for _, repo := range merged.Repos {
		url, _ := repo["repo"].(string)
		rev, _ := repo["rev"].(string)
		revs[url] = rev
	}

	if revs["https://github.com/astral-sh/ruff-pre-commit"] != "v0.8.0" {
		t.Fatalf("reference repo was not updated: %v", revs)
	}
	if revs["https://github.com/user/custom-hooks"] != "v1.0.0" {
		t.Fatalf("user repo was dropped: %v", revs)
	}
	if revs["https://github.com/pre-commit/pre-commit-hooks"] != "v5.0.0" {
		t.Fatalf("new reference repo was not appended: %v", revs)
	}
	if merged.Rest["default_language_version"] == nil {
		t.Fatalf("unknown top-level key was lost: %v", merged.Rest)
	}
}
