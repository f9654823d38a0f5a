package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/materialize"
	"github.com/Entalpic/entaldocs/internal/project"
	"github.com/Entalpic/entaldocs/internal/runner"
	"github.com/Entalpic/entaldocs/internal/substitute"
)

type quickstartOptions struct {
	projectName string
	projectURL  string
	docsPath    string
	branch      string

	asApp bool
	asPkg bool

	docs      bool
	precommit bool
	tests     bool
	actions   bool
	gitignore bool

	overwrite bool
	local     bool
}

func newQuickstartProjectCmd(globals *globalOptions) *cobra.Command {
	opts := &quickstartOptions{docsPath: "./docs"}

	cmd := &cobra.Command{
		Use:   "quickstart-project",
		Short: "Start a uv-based Python project with standard structure, CI, and docs",
		Long: `Start a uv-based Python project with standard structure, CI, and docs.

Initializes the project with uv (as a library unless --as-app or --as-pkg is
given), materializes the project boilerplate (tests scaffold, CI workflow,
.gitignore), sets up pre-commit hooks, and optionally initializes the docs
as per init-docs. Feature flags that are not passed are prompted for;
--yes accepts every default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuickstartProject(cmd, globals, opts)
		},
	}

	cmd.Flags().StringVar(&opts.projectName, "project-name", "", "Project name (detected, then prompted, if omitted)")
	cmd.Flags().StringVar(&opts.projectURL, "project-url", "", "Repository URL (detected from the git remote if omitted)")
	cmd.Flags().StringVar(&opts.docsPath, "docs-path", opts.docsPath, "Where to store the docs")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Branch to fetch the boilerplate from")
	cmd.Flags().BoolVar(&opts.asApp, "as-app", false, "Initialize as an app (no package structure)")
	cmd.Flags().BoolVar(&opts.asPkg, "as-pkg", false, "Initialize as a package in the project root")
	cmd.Flags().BoolVar(&opts.docs, "docs", true, "Initialize the docs")
	cmd.Flags().BoolVar(&opts.precommit, "precommit", true, "Write and install pre-commit hooks")
	cmd.Flags().BoolVar(&opts.tests, "tests", true, "Write the pytest scaffold")
	cmd.Flags().BoolVar(&opts.actions, "actions", true, "Write the GitHub Actions test workflow")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", true, "Write the .gitignore file")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Overwrite existing files without prompting")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Use the bundled boilerplate instead of fetching from GitHub")

	return cmd
}

// ensureUVProject is a package variable so tests can stub out the uv calls.
var ensureUVProject = setupUVProject

func runQuickstartProject(cmd *cobra.Command, globals *globalOptions, opts *quickstartOptions) error {
	if opts.asApp && opts.asPkg {
		return cmderr.New(cmderr.KindConfiguration, "--as-app and --as-pkg are mutually exclusive")
	}

	prompt := globals.prompter(cmd)
	out := cmd.OutOrStdout()

	name, err := project.Name(opts.projectName, ".", prompt)
	if err != nil {
		return err
	}
	if name == "" {
		return cmderr.New(cmderr.KindConfiguration, "project name cannot be empty")
	}
	moduleName := pythonModuleName(name)

	if err := ensureUVProject(cmd, opts, moduleName); err != nil {
		return err
	}

	entries, err := fetchBoilerplate(cmd, globals, boilerplateRequest{
		subtree:       "project",
		branch:        opts.branch,
		local:         opts.local,
		includeRemote: !opts.local,
	})
	if err != nil {
		return err
	}

	selected, err := selectProjectEntries(cmd, prompt, opts, entries)
	if err != nil {
		return err
	}

	if len(selected) > 0 {
		mat := &materialize.Materializer{
			Vars:   substitute.Map{"PROJECT_NAME": moduleName},
			Policy: conflictPolicy(opts.overwrite, globals.assumeYes),
			Prompt: prompt,
		}
		summary, err := mat.Run(selected, ".")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Project boilerplate written (%d written, %d overwritten, %d skipped).\n",
			summary.Written, summary.Overwritten, summary.Skipped)
	}

	doPrecommit, err := featureEnabled(cmd, prompt, "precommit", opts.precommit, "Write and install pre-commit hooks?")
	if err != nil {
		return err
	}
	if doPrecommit {
		if err := setupPreCommit(cmd); err != nil {
			return err
		}
		fmt.Fprintln(out, "Pre-commit hooks installed.")
	}

	doDocs, err := featureEnabled(cmd, prompt, "docs", opts.docs, "Initialize the docs?")
	if err != nil {
		return err
	}
	if doDocs {
		docsOpts := &initDocsOptions{
			path:        opts.docsPath,
			branch:      opts.branch,
			projectName: name,
			projectURL:  opts.projectURL,
			overwrite:   opts.overwrite,
			local:       opts.local,
		}
		if err := runInitDocs(cmd, globals, docsOpts); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Project initialized. Happy coding!")
	return nil
}

// setupUVProject runs `uv init` unless the project already carries a
// uv.lock. The layout flag follows the original tool: library by default,
// --as-app for a bare script, --as-pkg for a root-level package.
func setupUVProject(cmd *cobra.Command, opts *quickstartOptions, moduleName string) error {
	if !runner.LookPath("uv") {
		return cmderr.New(cmderr.KindConfiguration,
			"uv not found; install it first (https://docs.astral.sh/uv/)")
	}
	if hasUVLock() {
		fmt.Fprintln(cmd.OutOrStdout(), "Project already initialized with uv.")
		return nil
	}

	args := []string{"init", "--name=" + moduleName}
	switch {
	case opts.asApp:
		// uv's default layout.
	case opts.asPkg:
		args = append(args, "--package")
	default:
		args = append(args, "--lib")
	}

	run := &runner.Runner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	if err := run.Run(cmd.Context(), "uv", args...); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Project initialized with uv.")
	return nil
}

// selectProjectEntries narrows the project tree to the features the user
// asked for, prompting for features whose flags were not given.
func selectProjectEntries(
	cmd *cobra.Command,
	prompt console.Prompter,
	opts *quickstartOptions,
	entries []boilerplate.Entry,
) ([]boilerplate.Entry, error) {
	doGitignore, err := featureEnabled(cmd, prompt, "gitignore", opts.gitignore, "Write the .gitignore file?")
	if err != nil {
		return nil, err
	}
	doTests, err := featureEnabled(cmd, prompt, "tests", opts.tests, "Write the pytest scaffold?")
	if err != nil {
		return nil, err
	}
	doActions, err := featureEnabled(cmd, prompt, "actions", opts.actions, "Write the GitHub Actions workflow?")
	if err != nil {
		return nil, err
	}

	var selected []boilerplate.Entry
	for _, entry := range entries {
		switch {
		case entry.Path == ".gitignore":
			if doGitignore {
				selected = append(selected, entry)
			}
		case strings.HasPrefix(entry.Path, "tests/"):
			if doTests {
				selected = append(selected, entry)
			}
		case strings.HasPrefix(entry.Path, ".github/"):
			if doActions {
				selected = append(selected, entry)
			}
		default:
			selected = append(selected, entry)
		}
	}
	return selected, nil
}

// featureEnabled returns the flag value when it was set explicitly, and asks
// otherwise. Under --yes the prompter answers with the default, which is the
// flag's default value.
func featureEnabled(
	cmd *cobra.Command,
	prompt console.Prompter,
	flagName string,
	flagValue bool,
	question string,
) (bool, error) {
	if cmd.Flags().Changed(flagName) {
		return flagValue, nil
	}
	enabled, err := prompt.Confirm(question, flagValue)
	if err != nil {
		return false, fmt.Errorf("resolve --%s: %w", flagName, err)
	}
	return enabled, nil
}

func setupPreCommit(cmd *cobra.Command) error {
	reference, err := boilerplate.PreCommitReference()
	if err != nil {
		return err
	}
	if err := project.WriteOrUpdatePreCommit(".", reference); err != nil {
		return err
	}

	run := &runner.Runner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	if hasUVLock() {
		return run.Run(cmd.Context(), "uv", "run", "pre-commit", "install")
	}
	if runner.LookPath("pre-commit") {
		return run.Run(cmd.Context(), "pre-commit", "install")
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "pre-commit not found; config written but hooks were not installed")
	return nil
}

// pythonModuleName converts a human project name into an importable module
// name, as uv does for --name.
func pythonModuleName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}
