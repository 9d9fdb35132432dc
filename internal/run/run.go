// Package run is the process boundary for every external tool the CLI
// shells out to. Components depend on the Runner interface so tests can
// substitute fakes that never start a process.
package run

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Spec describes a single external command invocation.
type Spec struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the current process environment.
	Env []string
	// Stdout and Stderr default to the process streams when nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Line renders the invocation for log output.
func (s Spec) Line() string {
	return strings.Join(append([]string{s.Name}, s.Args...), " ")
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command, streaming output to the spec's writers.
	Run(ctx context.Context, spec Spec) error
	// Output executes the command and returns its combined output.
	Output(ctx context.Context, spec Spec) (string, error)
}

// OSRunner runs commands on the host via os/exec.
type OSRunner struct{}

var _ Runner = OSRunner{}

func (OSRunner) Run(ctx context.Context, spec Spec) error {
	cmd := command(ctx, spec)

	cmd.Stdout = spec.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = spec.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	return cmd.Run()
}

func (OSRunner) Output(ctx context.Context, spec Spec) (string, error) {
	output, err := command(ctx, spec).CombinedOutput()
	return string(output), err
}

func command(ctx context.Context, spec Spec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	return cmd
}

// ExitStatus extracts the process exit code from a Runner error. The second
// result is false when the command never ran or was killed by a signal.
func ExitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
