package pkgbuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/decantlabs/decant/internal/artifacts"
	"github.com/decantlabs/decant/internal/buildenv"
	"github.com/decantlabs/decant/internal/history"
	"github.com/decantlabs/decant/internal/hostenv"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/internal/tools"
	"github.com/decantlabs/decant/packaging"
)

// Service coordinates a package build end to end: it resolves the
// execution environment, verifies the required tools, stages the
// format and runs the build command where the environment says.
type Service struct {
	Logger  *slog.Logger
	Prober  ToolProber
	Engine  ContainerEngine
	Runner  run.Runner
	History HistoryStore

	App      App
	Layout   Layout
	Backends []Backend

	// DetectHost defaults to hostenv.Detect.
	DetectHost func() hostenv.Profile
}

// DefaultBackends returns the backends for every supported format.
func DefaultBackends(app App, layout Layout) []Backend {
	return []Backend{
		&DebBackend{App: app, Layout: layout},
		&RPMBackend{App: app, Layout: layout},
		&AppImageBackend{App: app, Layout: layout},
	}
}

// Build produces one package and returns the finished artifact.
func (s *Service) Build(ctx context.Context, request Request) (artifacts.Artifact, error) {
	backend, err := s.backend(request.Format)
	if err != nil {
		return artifacts.Artifact{}, err
	}

	if _, err := os.Stat(s.Layout.AppDir()); err != nil {
		return artifacts.Artifact{}, fmt.Errorf(
			"extracted sources not found at %s, run 'decant sources' first: %w", s.Layout.AppDir(), err)
	}

	detect := s.DetectHost
	if detect == nil {
		detect = hostenv.Detect
	}
	environment, err := buildenv.Resolve(detect(), request.Format)
	if err != nil {
		return artifacts.Artifact{}, err
	}
	containerized := environment.Mode == buildenv.ModeContainerized

	if err := s.Prober.Require(ctx, tools.ForBuild(request.Format, containerized)); err != nil {
		return artifacts.Artifact{}, err
	}

	s.logger().Info("building package",
		"format", request.Format, "mode", environment.Mode, "clean", request.Clean)

	spec, artifactPath, err := backend.Stage(request)
	if err != nil {
		return artifacts.Artifact{}, &BuildError{Format: request.Format, Stage: "stage", Err: err}
	}

	if err := os.MkdirAll(s.Layout.OutputDir, 0o755); err != nil {
		return artifacts.Artifact{}, &BuildError{Format: request.Format, Stage: "prepare output", Err: err}
	}

	if containerized {
		handle, err := s.Engine.Ensure(ctx, environment.Container)
		if err != nil {
			return artifacts.Artifact{}, &BuildError{Format: request.Format, Stage: "provision container", Err: err}
		}
		if err := s.Engine.Exec(ctx, handle, spec); err != nil {
			return artifacts.Artifact{}, &BuildError{Format: request.Format, Stage: "run build", Err: err}
		}
	} else {
		if err := s.Runner.Run(ctx, spec); err != nil {
			return artifacts.Artifact{}, &BuildError{Format: request.Format, Stage: "run build", Err: err}
		}
	}

	info, err := os.Stat(artifactPath)
	if err != nil {
		return artifacts.Artifact{}, &BuildError{
			Format: request.Format,
			Stage:  "verify artifact",
			Err:    fmt.Errorf("expected artifact %s missing: %w", artifactPath, err),
		}
	}

	artifact := artifacts.Artifact{Path: artifactPath, Format: request.Format, ModTime: info.ModTime()}
	s.record(artifact, environment.Mode)

	s.logger().Info("package built", "artifact", artifact.Path)
	return artifact, nil
}

// record appends the build to the history ledger. History is
// best-effort and never fails a finished build.
func (s *Service) record(artifact artifacts.Artifact, mode buildenv.Mode) {
	if s.History == nil {
		return
	}
	err := s.History.Append(history.Record{
		Format:   artifact.Format,
		Version:  s.App.Version,
		Mode:     mode,
		Artifact: artifact.Path,
	})
	if err != nil {
		s.logger().Warn("could not record build in history", "error", err)
	}
}

func (s *Service) backend(format packaging.Format) (Backend, error) {
	for _, backend := range s.Backends {
		if backend.Format() == format {
			return backend, nil
		}
	}
	return nil, fmt.Errorf("unsupported package format %q", format)
}

func (s *Service) logger() *slog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
