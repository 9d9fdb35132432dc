// Package container manages the long-lived build containers through the
// distrobox CLI. Containers are created lazily, named canonically per
// family, and never destroyed by this tool.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/decantlabs/decant/internal/run"
)

// Engine drives the container runtime.
type Engine struct {
	Runner run.Runner
	Logger *slog.Logger
}

// Ensure returns a handle to the family's canonical container, creating it
// from the family's base image when it does not exist yet. Ensure is
// idempotent: an "already exists" outcome from the runtime counts as
// success.
func (e *Engine) Ensure(ctx context.Context, family Family) (Handle, error) {
	if !family.IsValid() {
		return Handle{}, fmt.Errorf("unsupported container family %q", family)
	}

	handle := Handle{
		Name:      family.ContainerName(),
		BaseImage: family.BaseImage(),
		Family:    family,
	}

	logger := e.logger().With("container", handle.Name, "image", handle.BaseImage)
	logger.Info("ensuring build container")

	spec := run.Spec{
		Name: "distrobox",
		Args: []string{"create", "--name", handle.Name, "--image", handle.BaseImage, "--yes"},
	}

	output, err := e.Runner.Output(ctx, spec)
	if err != nil {
		if alreadyExists(output) {
			logger.Debug("container already exists, reusing it")
			return handle, nil
		}
		return Handle{}, fmt.Errorf("create container %s: %w (output: %s)", handle.Name, err, strings.TrimSpace(output))
	}

	if alreadyExists(output) {
		logger.Debug("container already exists, reusing it")
	} else {
		logger.Info("build container created")
	}
	return handle, nil
}

// Exec runs the command inside the container, streaming combined output to
// the spec's writers. Distrobox enters at the caller's working directory,
// so paths under the working tree resolve identically inside and out.
func (e *Engine) Exec(ctx context.Context, handle Handle, spec run.Spec) error {
	command := append([]string{spec.Name}, spec.Args...)
	if len(spec.Env) > 0 {
		command = append(append([]string{"env"}, spec.Env...), command...)
	}

	wrapped := run.Spec{
		Name:   "distrobox",
		Args:   append([]string{"enter", "--name", handle.Name, "--"}, command...),
		Dir:    spec.Dir,
		Stdout: spec.Stdout,
		Stderr: spec.Stderr,
	}

	e.logger().Debug("running inside container", "container", handle.Name, "command", spec.Line())
	return e.Runner.Run(ctx, wrapped)
}

func (e *Engine) logger() *slog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func alreadyExists(output string) bool {
	return strings.Contains(strings.ToLower(output), "already exists")
}
