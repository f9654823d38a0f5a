package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/runner"
)

type buildDocsOptions struct {
	path string
}

func newBuildDocsCmd(_ *globalOptions) *cobra.Command {
	opts := &buildDocsOptions{path: "./docs"}

	cmd := &cobra.Command{
		Use:   "build-docs",
		Short: "Build the docs (make clean && make html, through uv when available)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuildDocs(cmd, opts.path)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", opts.path, "Path to the documentation folder")

	return cmd
}

// runBuildDocs is a package variable so init-docs and watch-docs tests can
// stub out the external build tool.
var runBuildDocs = buildDocs

func buildDocs(cmd *cobra.Command, path string) error {
	if _, err := os.Stat(path); err != nil {
		return cmderr.New(cmderr.KindConfiguration,
			"docs path not found: %s (run `entaldocs init-docs` first)", path)
	}
	if _, err := os.Stat(filepath.Join(path, "Makefile")); err != nil {
		return cmderr.New(cmderr.KindConfiguration, "Makefile not found in %s", path)
	}

	commands := [][]string{
		{"make", "clean"},
		{"make", "html"},
	}
	if hasUVLock() {
		for i, command := range commands {
			commands[i] = append([]string{"uv", "run"}, command...)
		}
	}

	run := &runner.Runner{
		Dir:    path,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	for _, command := range commands {
		if err := run.Run(cmd.Context(), command[0], command[1:]...); err != nil {
			return err
		}
	}

	index := filepath.Join(path, "build", "html", "index.html")
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"Docs built in %s. Open with `entaldocs open-docs`.\n",
		index,
	); err != nil {
		return fmt.Errorf("write build summary: %w", err)
	}
	return nil
}

// hasUVLock reports whether the current project is uv-managed, which decides
// whether build commands run through `uv run`.
func hasUVLock() bool {
	_, err := os.Stat("uv.lock")
	return err == nil
}
