package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// execute builds a command with fresh globals, wires the --yes flag the root
// command normally owns, and runs it with the given arguments.
func execute(t *testing.T, build func(*globalOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()

	g := &globalOptions{}
	cmd := build(g)
	cmd.Flags().BoolVarP(&g.assumeYes, "yes", "y", false, "Accept defaults and skip all prompts")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
