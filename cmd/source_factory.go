package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/config"
	"github.com/Entalpic/entaldocs/internal/credentials"
	"github.com/Entalpic/entaldocs/internal/github"
)

// boilerplateRequest selects which template subtree to materialize and where
// it comes from.
type boilerplateRequest struct {
	// subtree is "docs" or "project".
	subtree string
	// branch overrides the configured boilerplate branch when non-empty.
	branch string
	// local serves the embedded templates instead of fetching from GitHub.
	local bool
	// includeRemote keeps hosting-specific files (CI workflows) in the tree.
	includeRemote bool
}

var fetchBoilerplate = defaultFetchBoilerplate

func defaultFetchBoilerplate(
	cmd *cobra.Command,
	globals *globalOptions,
	req boilerplateRequest,
) ([]boilerplate.Entry, error) {
	if req.local {
		return localEntries(req)
	}

	settings, err := config.Load()
	if err != nil {
		return nil, cmderr.Wrap(cmderr.KindConfiguration, err, "load settings")
	}
	branch := req.branch
	if branch == "" {
		branch = settings.Branch
	}

	resolver := &credentials.Resolver{
		Store:  credentials.Keyring(),
		Prompt: globals.prompter(cmd),
		Info:   cmd.ErrOrStderr(),
	}
	token, err := resolver.Token(credentials.GitHubPAT)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(github.ClientConfig{Token: token})
	contentPath := fmt.Sprintf("%s/%s", settings.Contents, req.subtree)
	entries, err := client.FetchTree(cmd.Context(), settings.Repo, contentPath, branch)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, cmderr.Wrap(cmderr.KindConfiguration, err,
				"boilerplate %s not found on branch %s of %s", contentPath, branch, settings.Repo)
		}
		return nil, err
	}

	if !req.includeRemote {
		entries = boilerplate.FilterLocal(entries)
	}
	return entries, nil
}

func localEntries(req boilerplateRequest) ([]boilerplate.Entry, error) {
	switch req.subtree {
	case "docs":
		return boilerplate.Docs()
	case "project":
		return boilerplate.Project(req.includeRemote)
	default:
		return nil, cmderr.New(cmderr.KindConfiguration, "unknown boilerplate subtree %q", req.subtree)
	}
}
