// Package executil runs external commands on behalf of the resource
// variants. Every invocation is a single short-lived child process;
// output is read to completion before the child is reaped so a full
// pipe can never deadlock the worker.
package executil

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	stationerrors "github.com/stationctl/stationctl/pkg/errors"
)

// Output captures the result of a completed command.
type Output struct {
	Stdout  string
	Stderr  string
	Success bool
}

// Runner abstracts child-process execution so tests can substitute a
// recording fake. A non-zero exit is reported through Output.Success,
// not through the error; the error is reserved for spawn-level
// failures (missing binary, cancelled context).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// System executes commands against the real machine.
type System struct{}

var _ Runner = System{}

// Run executes the command, capturing stdout and stderr.
func (System) Run(ctx context.Context, name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Output{
		Stdout:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
		Success: err == nil,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The tool ran and failed; the caller decides what
			// its stderr means.
			return out, nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return out, stationerrors.NewToolMissingError(name)
		}
		return out, err
	}

	return out, nil
}

// CommandLine renders a command and its arguments for error messages.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
