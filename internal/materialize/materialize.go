// Package materialize copies template trees into a destination directory,
// substituting placeholders and honoring a per-file conflict policy.
//
// Work happens in two phases: a Plan is computed without touching the
// filesystem, then Apply executes it. Planning resolves every destination
// path (including placeholder substitution in filenames), detects
// post-substitution collisions, and decides per conflicting file what Apply
// will do. The split keeps dry-run output reproducible and makes re-running
// a command converge instead of compounding.
package materialize

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/substitute"
)

// Policy governs what happens when a destination file already exists.
type Policy int

const (
	// PolicyInteractive prompts per conflicting file; answering "all"
	// switches the remaining conflicts to overwrite.
	PolicyInteractive Policy = iota
	// PolicySkip leaves existing files untouched.
	PolicySkip
	// PolicyOverwrite replaces existing files unconditionally.
	PolicyOverwrite
	// PolicyBackup copies a differing existing file to <name>.bak before
	// replacing it. Used by update-docs.
	PolicyBackup
)

// Action is the planned outcome for one template entry.
type Action int

const (
	// ActionWrite creates a file that does not exist yet.
	ActionWrite Action = iota
	// ActionOverwrite replaces an existing file.
	ActionOverwrite
	// ActionSkip leaves the existing file alone.
	ActionSkip
	// ActionBackup backs the existing file up, then replaces it.
	ActionBackup
)

func (a Action) String() string {
	switch a {
	case ActionWrite:
		return "write"
	case ActionOverwrite:
		return "overwrite"
	case ActionSkip:
		return "skip"
	case ActionBackup:
		return "backup"
	default:
		return "unknown"
	}
}

// Step is one planned file operation.
type Step struct {
	Entry  boilerplate.Entry
	Dest   string
	Action Action
}

// Plan is the ordered set of steps Apply will execute.
type Plan struct {
	Root  string
	Steps []Step
}

// Summary counts the outcomes of an applied plan.
type Summary struct {
	Written     int
	Overwritten int
	Skipped     int
	BackedUp    int
}

// Materializer plans and applies template trees.
type Materializer struct {
	Vars   substitute.Map
	Policy Policy
	Prompt console.Prompter
}

// Plan resolves destinations and conflict outcomes for entries under root.
// It performs no writes; interactive conflict prompts happen here so the
// filesystem is untouched until every decision is made.
func (m *Materializer) Plan(entries []boilerplate.Entry, root string) (*Plan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, cmderr.Wrap(cmderr.KindConfiguration, err, "resolve destination %s", root)
	}

	plan := &Plan{Root: absRoot, Steps: make([]Step, 0, len(entries))}
	seen := make(map[string]string, len(entries))
	overwriteAll := false

	for _, entry := range entries {
		rel := m.Vars.ApplyPath(entry.Path)
		if rel == "" || strings.HasPrefix(rel, "../") {
			return nil, cmderr.New(cmderr.KindConflict, "template %s resolves outside the destination", entry.Path)
		}
		if prev, ok := seen[rel]; ok {
			return nil, cmderr.New(cmderr.KindConflict,
				"templates %s and %s both resolve to %s", prev, entry.Path, rel)
		}
		seen[rel] = entry.Path

		dest := filepath.Join(absRoot, filepath.FromSlash(rel))
		action, err := m.decide(entry, dest, &overwriteAll)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, Step{Entry: entry, Dest: dest, Action: action})
	}
	return plan, nil
}

func (m *Materializer) decide(entry boilerplate.Entry, dest string, overwriteAll *bool) (Action, error) {
	info, err := os.Lstat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return ActionWrite, nil
	}
	if err != nil {
		return ActionSkip, cmderr.Wrap(cmderr.KindConflict, err, "inspect %s", dest)
	}
	if info.IsDir() {
		return ActionSkip, cmderr.New(cmderr.KindConflict, "%s exists and is a directory", dest)
	}

	switch m.Policy {
	case PolicySkip:
		return ActionSkip, nil
	case PolicyOverwrite:
		return ActionOverwrite, nil
	case PolicyBackup:
		same, err := m.identical(entry, dest)
		if err != nil {
			return ActionSkip, err
		}
		if same {
			return ActionSkip, nil
		}
		return ActionBackup, nil
	case PolicyInteractive:
		if *overwriteAll {
			return ActionOverwrite, nil
		}
		return m.ask(entry, dest, overwriteAll)
	default:
		return ActionSkip, cmderr.New(cmderr.KindConfiguration, "unknown conflict policy %d", m.Policy)
	}
}

func (m *Materializer) ask(entry boilerplate.Entry, dest string, overwriteAll *bool) (Action, error) {
	if m.Prompt == nil {
		return ActionSkip, cmderr.New(cmderr.KindConfiguration,
			"%s already exists and no prompter is available; use --overwrite or re-run interactively", dest)
	}
	answer, err := m.Prompt.Ask(fmt.Sprintf("Overwrite %s? [y]es / [n]o / [a]ll", dest), "n")
	if err != nil {
		return ActionSkip, fmt.Errorf("resolve conflict for %s: %w", dest, err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return ActionOverwrite, nil
	case "a", "all":
		*overwriteAll = true
		return ActionOverwrite, nil
	default:
		return ActionSkip, nil
	}
}

func (m *Materializer) identical(entry boilerplate.Entry, dest string) (bool, error) {
	existing, err := os.ReadFile(dest)
	if err != nil {
		return false, cmderr.Wrap(cmderr.KindConflict, err, "read %s", dest)
	}
	return bytes.Equal(existing, m.render(entry)), nil
}

func (m *Materializer) render(entry boilerplate.Entry) []byte {
	if entry.Binary {
		return entry.Body
	}
	return m.Vars.ApplyBytes(entry.Body)
}

// Apply executes a plan. The destination root is probed for writability
// before any step runs; a probe failure removes whatever the probe created,
// so a destination that never existed stays absent.
func (m *Materializer) Apply(plan *Plan) (Summary, error) {
	var summary Summary

	if err := ensureWritableRoot(plan.Root); err != nil {
		return summary, err
	}

	for _, step := range plan.Steps {
		switch step.Action {
		case ActionSkip:
			summary.Skipped++
			continue
		case ActionBackup:
			if err := backup(step.Dest); err != nil {
				return summary, err
			}
			summary.BackedUp++
		case ActionOverwrite:
			summary.Overwritten++
		case ActionWrite:
			summary.Written++
		}

		if err := os.MkdirAll(filepath.Dir(step.Dest), 0o755); err != nil {
			return summary, cmderr.Wrap(cmderr.KindConflict, err, "create directory for %s", step.Dest)
		}
		if err := os.WriteFile(step.Dest, m.render(step.Entry), 0o644); err != nil {
			return summary, cmderr.Wrap(cmderr.KindConflict, err, "write %s", step.Dest)
		}
	}
	return summary, nil
}

// Run plans and applies in one call.
func (m *Materializer) Run(entries []boilerplate.Entry, root string) (Summary, error) {
	plan, err := m.Plan(entries, root)
	if err != nil {
		return Summary{}, err
	}
	return m.Apply(plan)
}

// ensureWritableRoot creates the destination root if needed and verifies a
// file can be written inside it. On failure every directory this call
// created is removed before returning, leaving the destination as found.
func ensureWritableRoot(root string) error {
	created := firstMissingDir(root)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return cmderr.Wrap(cmderr.KindConflict, err, "create destination %s", root)
	}

	probe, err := os.CreateTemp(root, ".entaldocs-probe-*")
	if err != nil {
		if created != "" {
			_ = os.RemoveAll(created)
		}
		return cmderr.Wrap(cmderr.KindConflict, err, "destination %s is not writable", root)
	}
	name := probe.Name()
	if cerr := probe.Close(); cerr != nil {
		_ = os.Remove(name)
		return cmderr.Wrap(cmderr.KindConflict, cerr, "destination %s is not writable", root)
	}
	if rerr := os.Remove(name); rerr != nil {
		return cmderr.Wrap(cmderr.KindConflict, rerr, "destination %s is not writable", root)
	}
	return nil
}

// firstMissingDir returns the topmost ancestor of root that does not exist
// yet, or "" when root already exists.
func firstMissingDir(root string) string {
	missing := ""
	dir := root
	for {
		if _, err := os.Lstat(dir); err == nil {
			return missing
		}
		missing = dir
		parent := filepath.Dir(dir)
		if parent == dir {
			return missing
		}
		dir = parent
	}
}

// backup copies dest to dest.bak, or dest.bak.N when backups already exist.
func backup(dest string) error {
	target := dest + ".bak"
	for n := 1; ; n++ {
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			break
		}
		target = fmt.Sprintf("%s.bak.%d", dest, n)
	}
	body, err := os.ReadFile(dest)
	if err != nil {
		return cmderr.Wrap(cmderr.KindConflict, err, "back up %s", dest)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return cmderr.Wrap(cmderr.KindConflict, err, "back up %s", dest)
	}
	return nil
}
