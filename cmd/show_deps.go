package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
)

type showDepsOptions struct {
	asPip bool
}

func newShowDepsCmd(_ *globalOptions) *cobra.Command {
	opts := &showDepsOptions{}

	cmd := &cobra.Command{
		Use:   "show-deps",
		Short: "Show the recommended dependencies installed by init-docs and quickstart-project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShowDeps(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asPip, "as-pip", false, "Print as a flat pip-installable list")

	return cmd
}

func runShowDeps(cmd *cobra.Command, opts *showDepsOptions) error {
	deps, scopes, err := boilerplate.Dependencies()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asPip {
		var all []string
		for _, scope := range scopes {
			all = append(all, deps[scope]...)
		}
		if _, err := fmt.Fprintln(out, strings.Join(all, " ")); err != nil {
			return fmt.Errorf("write dependencies: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintln(out, "Dependencies:"); err != nil {
		return fmt.Errorf("write dependencies: %w", err)
	}
	for _, scope := range scopes {
		if _, err := fmt.Fprintf(out, "  %s: %s\n", scope, strings.Join(deps[scope], " ")); err != nil {
			return fmt.Errorf("write dependencies: %w", err)
		}
	}
	return nil
}
