package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/materialize"
	"github.com/Entalpic/entaldocs/internal/project"
)

type updateDocsOptions struct {
	path   string
	branch string
	local  bool
}

func newUpdateDocsCmd(globals *globalOptions) *cobra.Command {
	opts := &updateDocsOptions{path: "./docs"}

	cmd := &cobra.Command{
		Use:   "update-docs",
		Short: "Refresh static assets, the managed conf.py section, and pre-commit hooks",
		Long: `Refresh static assets, the managed conf.py section, and pre-commit hooks.

Static files that differ from the incoming boilerplate are backed up to
<name>.bak before being replaced. Only the region of conf.py between the
entaldocs update markers is touched; the rest of the file is yours.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdateDocs(cmd, globals, opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", opts.path, "Path to the documentation folder")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Branch to fetch the boilerplate from")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Use the bundled boilerplate instead of fetching from GitHub")

	return cmd
}

func runUpdateDocs(cmd *cobra.Command, globals *globalOptions, opts *updateDocsOptions) error {
	if _, err := os.Stat(opts.path); err != nil {
		return cmderr.New(cmderr.KindConfiguration, "docs path not found: %s", opts.path)
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
	out := cmd.OutOrStdout()

	ok, err := prompt.Confirm("Update the documentation's static files?", true)
	if err != nil {
		return err
	}
	if ok {
		if err := updateStaticFiles(entries, opts.path, out); err != nil {
			return err
		}
	}

	ok, err = prompt.Confirm("Update the managed section of conf.py?", true)
	if err != nil {
		return err
	}
	if ok {
		if err := updateConfPy(entries, opts.path); err != nil {
			return err
		}
		fmt.Fprintln(out, "conf.py updated.")
	}

	ok, err = prompt.Confirm("Update the pre-commit hooks?", true)
	if err != nil {
		return err
	}
	if ok {
		reference, err := boilerplate.PreCommitReference()
		if err != nil {
			return err
		}
		if err := project.WriteOrUpdatePreCommit(".", reference); err != nil {
			return err
		}
		fmt.Fprintln(out, "Pre-commit config updated.")
	}

	fmt.Fprintln(out, "Done.")
	return nil
}

func updateStaticFiles(entries []boilerplate.Entry, docsPath string, out io.Writer) error {
	var statics []boilerplate.Entry
	for _, entry := range entries {
		if strings.Contains(entry.Path, "_static/") {
			statics = append(statics, entry)
		}
	}
	if len(statics) == 0 {
		return nil
	}

	// Static assets carry no placeholders, so no substitution map is needed;
	// differing files are backed up before replacement.
	mat := &materialize.Materializer{Policy: materialize.PolicyBackup}
	summary, err := mat.Run(statics, docsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Static files updated (%d written, %d backed up, %d unchanged).\n",
		summary.Written, summary.BackedUp, summary.Skipped)
	return nil
}

func updateConfPy(entries []boilerplate.Entry, docsPath string) error {
	for _, entry := range entries {
		if entry.Path != "source/conf.py" {
			continue
		}
		dest := filepath.Join(docsPath, "source", "conf.py")
		if _, err := os.Stat(dest); err != nil {
			return cmderr.New(cmderr.KindConfiguration, "conf.py not found at %s", dest)
		}
		return project.UpdateManagedRegion(dest, entry.Body)
	}
	return cmderr.New(cmderr.KindConfiguration, "boilerplate carries no source/conf.py")
}
