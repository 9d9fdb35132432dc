// Package launch starts a packaged artifact and tees its output into
// the persistent launch log.
package launch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/decantlabs/decant/internal/artifacts"
	"github.com/decantlabs/decant/internal/container"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/packaging"
)

// ContainerEngine is the subset of the container engine used when the
// packaged binary is not installed on the host.
type ContainerEngine interface {
	Ensure(ctx context.Context, family container.Family) (container.Handle, error)
	Exec(ctx context.Context, handle container.Handle, spec run.Spec) error
}

var _ ContainerEngine = (*container.Engine)(nil)

// Launcher runs a discovered artifact in the foreground.
type Launcher struct {
	Logger *slog.Logger
	Runner run.Runner
	Engine ContainerEngine

	// BinaryName is the executable deb and rpm packages install.
	BinaryName string
	// LogPath receives a copy of everything the application prints.
	LogPath string
	// LockPath is the desktop application's singleton lock. A leftover
	// lock from an unclean shutdown blocks a fresh instance.
	LockPath string

	// LookPath resolves installed executables, exec.LookPath when nil.
	LookPath func(name string) (string, error)
}

// Launch runs the artifact and blocks until it exits. Application
// output goes to the terminal and to LogPath.
func (l *Launcher) Launch(ctx context.Context, artifact artifacts.Artifact) error {
	l.reportStaleLock()

	logFile, err := os.OpenFile(l.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening launch log %s: %w", l.LogPath, err)
	}
	defer logFile.Close()

	stdout := io.MultiWriter(os.Stdout, logFile)
	stderr := io.MultiWriter(os.Stderr, logFile)

	switch artifact.Format {
	case packaging.FormatAppImage:
		return l.launchAppImage(ctx, artifact, stdout, stderr)
	case packaging.FormatDeb, packaging.FormatRPM:
		return l.launchInstalled(ctx, artifact, stdout, stderr)
	default:
		return fmt.Errorf("cannot launch artifact format %q", artifact.Format)
	}
}

func (l *Launcher) launchAppImage(ctx context.Context, artifact artifacts.Artifact, stdout, stderr io.Writer) error {
	if err := os.Chmod(artifact.Path, 0o755); err != nil {
		return fmt.Errorf("marking %s executable: %w", artifact.Path, err)
	}

	l.logger().Info("launching AppImage", "path", artifact.Path, "log", l.LogPath)
	if err := l.Runner.Run(ctx, run.Spec{Name: artifact.Path, Stdout: stdout, Stderr: stderr}); err != nil {
		return fmt.Errorf("launching %s: %w", artifact.Path, err)
	}
	return nil
}

// launchInstalled runs the binary a deb or rpm package installs. When
// the binary is not on the host PATH, the matching build container
// runs it instead.
func (l *Launcher) launchInstalled(ctx context.Context, artifact artifacts.Artifact, stdout, stderr io.Writer) error {
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if binary, err := lookPath(l.BinaryName); err == nil {
		l.logger().Info("launching installed binary", "binary", binary, "log", l.LogPath)
		if err := l.Runner.Run(ctx, run.Spec{Name: binary, Stdout: stdout, Stderr: stderr}); err != nil {
			return fmt.Errorf("launching %s: %w", binary, err)
		}
		return nil
	}

	family := container.FamilyDebian
	if artifact.Format == packaging.FormatRPM {
		family = container.FamilyFedora
	}

	l.logger().Info("binary not installed on host, launching inside container",
		"binary", l.BinaryName, "family", family, "log", l.LogPath)

	handle, err := l.Engine.Ensure(ctx, family)
	if err != nil {
		return err
	}
	if err := l.Engine.Exec(ctx, handle, run.Spec{Name: l.BinaryName, Stdout: stdout, Stderr: stderr}); err != nil {
		return fmt.Errorf("launching %s in %s: %w", l.BinaryName, handle.Name, err)
	}
	return nil
}

func (l *Launcher) reportStaleLock() {
	if l.LockPath == "" {
		return
	}
	if _, err := os.Stat(l.LockPath); err == nil {
		l.logger().Warn("stale singleton lock found, a previous instance may not have shut down cleanly",
			"path", l.LockPath)
	}
}

func (l *Launcher) logger() *slog.Logger {
	if l != nil && l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
