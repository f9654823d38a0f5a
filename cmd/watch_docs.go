package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/watch"
)

type watchDocsOptions struct {
	path     string
	patterns string
}

func newWatchDocsCmd(_ *globalOptions) *cobra.Command {
	opts := &watchDocsOptions{
		path:     "./docs",
		patterns: strings.Join(watch.DefaultPatterns, ";"),
	}

	cmd := &cobra.Command{
		Use:   "watch-docs",
		Short: "Rebuild the docs automatically when source files change",
		Long: `Rebuild the docs automatically when source files change.

Builds once, then watches the current directory tree and re-runs the build
whenever a file matching the given patterns is modified. AutoAPI
intermediates are ignored so a build never re-triggers itself. Stop with
Ctrl+C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchDocs(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", opts.path, "Path to the documentation folder")
	cmd.Flags().StringVar(
		&opts.patterns,
		"patterns",
		opts.patterns,
		"Semicolon-separated regexes of files that trigger a rebuild",
	)

	return cmd
}

func runWatchDocs(cmd *cobra.Command, opts *watchDocsOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runBuildDocs(cmd, opts.path); err != nil {
		return err
	}

	watcher, err := watch.New(strings.Split(opts.patterns, ";"))
	if err != nil {
		return err
	}
	watcher.OnChange = func() {
		if err := runBuildDocs(cmd, opts.path); err != nil {
			// Report and keep watching: the next save gets another chance.
			fmt.Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
		}
	}
	watcher.OnError = func(err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
	}

	here, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s. Press Ctrl+C to stop.\n", here)

	if err := watcher.Run(ctx, "."); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Watching stopped.")
	return nil
}
