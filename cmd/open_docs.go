package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/runner"
)

type openDocsOptions struct {
	path string
}

func newOpenDocsCmd(_ *globalOptions) *cobra.Command {
	opts := &openDocsOptions{path: "./docs"}

	cmd := &cobra.Command{
		Use:   "open-docs",
		Short: "Open the locally built docs in the default browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOpenDocs(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", opts.path, "Path to the documentation folder")

	return cmd
}

func runOpenDocs(cmd *cobra.Command, opts *openDocsOptions) error {
	index := filepath.Join(opts.path, "build", "html", "index.html")
	if _, err := os.Stat(index); err != nil {
		return cmderr.New(cmderr.KindConfiguration,
			"built docs not found at %s; run `entaldocs build-docs` first", index)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Opening %s in the default browser.\n", index)

	run := &runner.Runner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	switch runtime.GOOS {
	case "darwin":
		return run.Run(cmd.Context(), "open", index)
	case "windows":
		return run.Run(cmd.Context(), "cmd", "/c", "start", "", index)
	default:
		return run.Run(cmd.Context(), "xdg-open", index)
	}
}
