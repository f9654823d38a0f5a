package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
)

type globalOptions struct {
	assumeYes bool
}

var globals = &globalOptions{}

// prompter returns the interactive capability for a command run: a terminal
// prompter normally, or one that answers every question with its default
// when --yes was passed.
func (g *globalOptions) prompter(cmd *cobra.Command) console.Prompter {
	if g.assumeYes {
		return console.NonInteractive{}
	}
	return console.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
}

var rootCmd = &cobra.Command{
	Use:           "entaldocs",
	Short:         "Scaffold Entalpic-standard Sphinx docs and Python project boilerplate",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command hierarchy.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("execute command: %w", err)
	}
	return nil
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	return cmderr.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&globals.assumeYes,
		"yes",
		"y",
		false,
		"Accept defaults and skip all prompts",
	)

	rootCmd.SetErr(os.Stderr)
	rootCmd.SetOut(os.Stdout)

	rootCmd.AddCommand(newQuickstartProjectCmd(globals))
	rootCmd.AddCommand(newInitDocsCmd(globals))
	rootCmd.AddCommand(newBuildDocsCmd(globals))
	rootCmd.AddCommand(newWatchDocsCmd(globals))
	rootCmd.AddCommand(newOpenDocsCmd(globals))
	rootCmd.AddCommand(newUpdateDocsCmd(globals))
	rootCmd.AddCommand(newSetGithubPATCmd(globals))
	rootCmd.AddCommand(newShowDepsCmd(globals))
}
