package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/credentials"
)

type setPATOptions struct {
	token string
}

func newSetGithubPATCmd(globals *globalOptions) *cobra.Command {
	opts := &setPATOptions{}

	cmd := &cobra.Command{
		Use:   "set-github-pat",
		Short: "Store a GitHub Personal Access Token in the system keyring",
		Long: `Store a GitHub Personal Access Token (PAT) in the system keyring.

A PAT is required to fetch the latest boilerplate from the repository when
not running with --local. Create a fine-grained token with read access to
Contents and Metadata on the boilerplate repository.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetGithubPAT(cmd, globals, opts)
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "Token to store (prompted with hidden input if omitted)")

	return cmd
}

func runSetGithubPAT(cmd *cobra.Command, globals *globalOptions, opts *setPATOptions) error {
	prompt := globals.prompter(cmd)

	token := strings.TrimSpace(opts.token)
	if token == "" {
		read, err := prompt.Secret("Enter your GitHub PAT")
		if err != nil {
			return cmderr.Wrap(cmderr.KindCredential, err, "read token")
		}
		token = strings.TrimSpace(read)
	}
	if token == "" {
		return cmderr.New(cmderr.KindCredential, "token cannot be empty")
	}

	ok, err := prompt.Confirm("Store the GitHub PAT in the system keyring?", true)
	if err != nil {
		return fmt.Errorf("confirm storage: %w", err)
	}
	if !ok {
		return cmderr.New(cmderr.KindCredential, "aborted; token was not stored")
	}

	resolver := &credentials.Resolver{Store: credentials.Keyring()}
	if err := resolver.Save(credentials.GitHubPAT, token); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(
		cmd.OutOrStdout(),
		"GitHub PAT saved. You can now run `entaldocs init-docs`.",
	); err != nil {
		return fmt.Errorf("write confirmation: %w", err)
	}
	return nil
}
