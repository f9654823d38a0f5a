package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/materialize"
	"github.com/Entalpic/entaldocs/internal/project"
	"github.com/Entalpic/entaldocs/internal/runner"
	"github.com/Entalpic/entaldocs/internal/substitute"
)

// urlPlaceholder lands in conf.py when no repository URL could be resolved,
// so the file stays valid and the gap is visible.
const urlPlaceholder = "URL-TO-BE-SET"

type initDocsOptions struct {
	path        string
	branch      string
	projectName string
	projectURL  string
	overwrite   bool
	local       bool
	skipBuild   bool
}

func newInitDocsCmd(globals *globalOptions) *cobra.Command {
	opts := &initDocsOptions{path: "./docs"}

	cmd := &cobra.Command{
		Use:   "init-docs",
		Short: "Initialize a Sphinx documentation tree with Entalpic's standard configuration",
		Long: `Initialize a Sphinx documentation tree with Entalpic's standard configuration.

Materializes the boilerplate docs tree into --path, fills in the project
name, repository URL and autoapi package list, writes a ReadTheDocs config,
and runs a first build. Remaining $FILL_HERE placeholders in the generated
files are yours to complete.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitDocs(cmd, globals, opts)
		},
	}

	addInitDocsFlags(cmd, opts)

	return cmd
}

func addInitDocsFlags(cmd *cobra.Command, opts *initDocsOptions) {
	cmd.Flags().StringVar(&opts.path, "path", opts.path, "Where to store the docs")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Branch to fetch the boilerplate from")
	cmd.Flags().StringVar(&opts.projectName, "project-name", "", "Project name (detected, then prompted, if omitted)")
	cmd.Flags().StringVar(&opts.projectURL, "project-url", "", "Repository URL (detected from the git remote if omitted)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Overwrite existing files without prompting")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Use the bundled boilerplate instead of fetching from GitHub")
	cmd.Flags().BoolVar(&opts.skipBuild, "skip-build", false, "Do not run the initial docs build")
}

func runInitDocs(cmd *cobra.Command, globals *globalOptions, opts *initDocsOptions) error {
	hasPy, err := project.HasPythonFiles(".")
	if err != nil {
		return err
	}
	if !hasPy {
		return cmderr.New(cmderr.KindConfiguration,
			"no Python files found in the project; there is nothing to document")
	}

	entries, err := fetchBoilerplate(cmd, globals, boilerplateRequest{
		subtree:       "docs",
		branch:        opts.branch,
		local:         opts.local,
		includeRemote: true,
	})
	if err != nil {
		return err
	}

	prompt := globals.prompter(cmd)
	vars, err := resolveDocsVars(cmd, opts, prompt)
	if err != nil {
		return err
	}

	mat := &materialize.Materializer{
		Vars:   vars,
		Policy: conflictPolicy(opts.overwrite, globals.assumeYes),
		Prompt: prompt,
	}
	summary, err := mat.Run(entries, opts.path)
	if err != nil {
		return err
	}

	if err := makeEmptyFolders(opts.path); err != nil {
		return err
	}

	wroteRTD, err := project.WriteReadTheDocs(".")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Docs initialized at %s (%d written, %d overwritten, %d skipped).\n",
		opts.path, summary.Written, summary.Overwritten, summary.Skipped)
	if wroteRTD {
		fmt.Fprintln(out, "ReadTheDocs config written.")
	}
	fmt.Fprintln(out, "Update the remaining $FILL_HERE placeholders in source/conf.py.")

	if opts.skipBuild {
		return nil
	}
	return runBuildDocs(cmd, opts.path)
}

// resolveDocsVars builds the placeholder map for docs materialization.
// Flag-supplied values take precedence; detection fills the prompt defaults.
func resolveDocsVars(cmd *cobra.Command, opts *initDocsOptions, prompt console.Prompter) (substitute.Map, error) {
	name, err := project.Name(opts.projectName, ".", prompt)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, cmderr.New(cmderr.KindConfiguration, "project name cannot be empty")
	}

	run := &runner.Runner{}
	url, err := project.RepoURL(cmd.Context(), opts.projectURL, run, prompt)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = urlPlaceholder
	}

	packages, err := project.DiscoverPackages(".", opts.path)
	if err != nil {
		return nil, err
	}

	return substitute.Map{
		"PROJECT_NAME":     name,
		"PROJECT_URL":      url,
		"PROJECT_PACKAGES": project.PackagesLiteral(packages),
	}, nil
}

// conflictPolicy maps command flags to a materialization policy: --overwrite
// forces replacement, --yes runs non-interactively and skips conflicts, and
// the default prompts per file.
func conflictPolicy(overwrite, assumeYes bool) materialize.Policy {
	switch {
	case overwrite:
		return materialize.PolicyOverwrite
	case assumeYes:
		return materialize.PolicySkip
	default:
		return materialize.PolicyInteractive
	}
}

// makeEmptyFolders creates the build and static directories Sphinx expects
// but which cannot ship as (empty) template entries.
func makeEmptyFolders(docsPath string) error {
	for _, dir := range []string{
		filepath.Join(docsPath, "build"),
		filepath.Join(docsPath, "source", "_static"),
		filepath.Join(docsPath, "source", "_templates"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
