// Package runner wraps the external tools entaldocs orchestrates: the Sphinx
// make targets, uv, and git. Output handling and exit-code propagation live
// here so commands stay thin.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/Entalpic/entaldocs/internal/cmderr"
)

// Runner executes subprocesses in a working directory.
type Runner struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Stdout and Stderr receive passthrough output from Run.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name with args, streaming its output. A non-zero exit is
// returned as an external-tool error carrying the tool's exit code.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return wrapExecError(err, name, args)
	}
	return nil
}

// Capture executes name with args and returns its trimmed stdout. Stderr is
// captured too and included in the error on failure.
func (r *Runner) Capture(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", cmderr.External(err, exitCode(err), "%s %s: %s", name, strings.Join(args, " "), detail)
		}
		return "", wrapExecError(err, name, args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// LookPath reports whether name resolves to an executable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func wrapExecError(err error, name string, args []string) error {
	return cmderr.External(err, exitCode(err), "%s %s failed", name, strings.Join(args, " "))
}

func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}
