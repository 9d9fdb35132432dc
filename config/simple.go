// Package simple wires the decant services together behind a small
// facade so the CLI stays declarative.
package simple

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/internal/artifacts"
	"github.com/decantlabs/decant/internal/container"
	"github.com/decantlabs/decant/internal/extract"
	"github.com/decantlabs/decant/internal/history"
	"github.com/decantlabs/decant/internal/launch"
	"github.com/decantlabs/decant/internal/logging"
	"github.com/decantlabs/decant/internal/paths"
	"github.com/decantlabs/decant/internal/pkgbuild"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/internal/tools"
	"github.com/decantlabs/decant/packaging"
)

// DefaultProjectDir is used when the CLI is given no project directory.
var DefaultProjectDir = "."

// PrepareSources downloads the vendor installer when needed and runs
// the extraction pipeline that turns it into an editable source tree.
func PrepareSources(ctx context.Context, projectDir, profilePath string, force bool, logger *slog.Logger) error {
	logger = logging.Ensure(logger).With("component", "config.simple")

	profile, err := LoadProfile(projectDir, profilePath)
	if err != nil {
		return err
	}

	runner := run.OSRunner{}
	prober := &tools.Prober{Runner: runner, Logger: logger}
	if err := prober.Require(ctx, tools.ForSources()); err != nil {
		return err
	}

	installer := profile.InstallerPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(installer), 0o755); err != nil {
		return fmt.Errorf("creating work directory %s: %w", filepath.Dir(installer), err)
	}

	_, statErr := os.Stat(installer)
	switch {
	case force || errors.Is(statErr, fs.ErrNotExist):
		downloader := &extract.CurlDownloader{Runner: runner}
		logger.Info("downloading installer", "url", profile.InstallerDownloadURL(), "to", installer)
		if err := downloader.Download(ctx, profile.InstallerDownloadURL(), installer); err != nil {
			return err
		}
	case statErr != nil:
		return fmt.Errorf("checking installer %s: %w", installer, statErr)
	default:
		logger.Info("installer already downloaded", "path", installer)
	}

	pipeline := &extract.Pipeline{
		Logger:          logger.With("service", "extract"),
		Unarchiver:      &extract.SevenZipUnarchiver{Runner: runner},
		Resources:       &extract.AsarArchiver{Runner: runner},
		Beautifier:      &extract.NPXBeautifier{Runner: runner},
		Layout:          profile.ExtractLayout(projectDir),
		NormalizeSubdir: profile.NormalizeSubdir,
	}
	return pipeline.Run(ctx, installer)
}

// BuildPackage produces one package in the requested format and
// returns the finished artifact.
func BuildPackage(ctx context.Context, formatName string, clean bool, projectDir, profilePath string, logger *slog.Logger) (artifacts.Artifact, error) {
	logger = logging.Ensure(logger).With("component", "config.simple")

	format, err := packaging.ParseFormat(formatName)
	if err != nil {
		return artifacts.Artifact{}, err
	}
	profile, err := LoadProfile(projectDir, profilePath)
	if err != nil {
		return artifacts.Artifact{}, err
	}

	runner := run.OSRunner{}

	var ledger pkgbuild.HistoryStore
	if historyPath, err := paths.HistoryPath(); err != nil {
		logger.Warn("build history disabled", "error", err)
	} else {
		ledger = &history.Store{Path: historyPath}
	}

	app := profile.App()
	layout := profile.BuildLayout(projectDir)
	service := &pkgbuild.Service{
		Logger:   logger.With("service", "build"),
		Prober:   &tools.Prober{Runner: runner, Logger: logger},
		Engine:   &container.Engine{Runner: runner, Logger: logger.With("service", "container")},
		Runner:   runner,
		History:  ledger,
		App:      app,
		Layout:   layout,
		Backends: pkgbuild.DefaultBackends(app, layout),
	}
	return service.Build(ctx, pkgbuild.Request{Format: format, Clean: clean})
}

// LaunchLatest finds the most recent artifact by format preference and
// runs it in the foreground. The boolean reports whether any artifact
// existed to launch; false with a nil error means there is nothing built
// yet, which is not a failure.
func LaunchLatest(ctx context.Context, projectDir, profilePath string, logger *slog.Logger) (bool, error) {
	logger = logging.Ensure(logger).With("component", "config.simple")

	profile, err := LoadProfile(projectDir, profilePath)
	if err != nil {
		return false, err
	}
	preference, err := profile.Formats()
	if err != nil {
		return false, err
	}

	layout := profile.BuildLayout(projectDir)
	artifact, found, err := artifacts.FindLatest(preference, layout.OutputDir, projectDir)
	if err != nil {
		return false, err
	}
	if !found {
		logger.Info("no packaged artifacts found", "output_dir", layout.OutputDir, "project_dir", projectDir)
		return false, nil
	}

	logPath, err := paths.LaunchLogPath()
	if err != nil {
		return true, err
	}

	runner := run.OSRunner{}
	launcher := &launch.Launcher{
		Logger:     logger.With("service", "launch"),
		Runner:     runner,
		Engine:     &container.Engine{Runner: runner, Logger: logger.With("service", "container")},
		BinaryName: profile.AppName,
		LogPath:    logPath,
		LockPath:   paths.SingletonLockPath(profile.App().DisplayName),
	}
	return true, launcher.Launch(ctx, artifact)
}

// Doctor probes every tool decant may need and reports the results.
func Doctor(ctx context.Context, logger *slog.Logger) []tools.Status {
	logger = logging.Ensure(logger).With("component", "config.simple")

	prober := &tools.Prober{Runner: run.OSRunner{}, Logger: logger}
	return prober.Report(ctx, tools.All())
}

// ListHistory returns the recorded builds, newest first.
func ListHistory() ([]history.Record, error) {
	historyPath, err := paths.HistoryPath()
	if err != nil {
		return nil, err
	}
	store := &history.Store{Path: historyPath}
	return store.List()
}
