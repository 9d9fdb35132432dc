// Package extract unwraps the vendor installer layer by layer: the
// self-extracting installer yields a nested package, the nested package
// carries the packed resource archive, and that archive unpacks into the
// application source tree the package backends consume.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decantlabs/decant/internal/fsutil"
)

// Pipeline drives the fixed extraction sequence. Every stage failure aborts
// the run and leaves the scratch directories behind for inspection; cleanup
// only happens on the success path.
type Pipeline struct {
	Logger     *slog.Logger
	Unarchiver Unarchiver
	Resources  ResourceArchiver
	Beautifier Beautifier

	Layout Layout
	// NormalizeSubdir is the build-output directory under the app tree
	// whose scripts get rewritten into readable form. Empty means the
	// whole app tree.
	NormalizeSubdir string
}

// Run threads the installer through all six stages.
func (p *Pipeline) Run(ctx context.Context, installerPath string) error {
	layout := p.Layout
	normalizeDir := filepath.Join(layout.AppDir(), p.NormalizeSubdir)

	stages := []Stage{
		{
			Name:  "unwrap installer",
			Input: installerPath,
			Run: func(ctx context.Context) error {
				return p.unwrapInstaller(ctx, installerPath)
			},
		},
		{
			Name:  "unwrap nested package",
			Input: layout.installerDir(),
			Run:   p.unwrapNestedPackage,
		},
		{
			Name:  "relocate resources",
			Input: layout.packageDir(),
			Run:   p.relocateResources,
		},
		{
			Name:  "unpack resource archive",
			Input: layout.ResourceArchivePath(),
			Run:   p.unpackResourceArchive,
		},
		{
			Name:  "normalize scripts",
			Input: normalizeDir,
			Run: func(ctx context.Context) error {
				return p.normalizeScripts(ctx, normalizeDir)
			},
		},
		{
			Name: "cleanup",
			Run: func(context.Context) error {
				return p.cleanup()
			},
		},
	}

	for _, stage := range stages {
		if err := p.runStage(ctx, stage); err != nil {
			return err
		}
	}

	p.logger().Info("extraction completed",
		"source_tree", layout.AppDir(),
		"icons", layout.IconsDir,
	)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage) error {
	if stage.Input != "" {
		if _, err := os.Stat(stage.Input); err != nil {
			return &StageError{Stage: stage.Name, Path: stage.Input, Err: fmt.Errorf("stage input missing: %w", err)}
		}
	}

	p.logger().Info("extraction stage started", "stage", stage.Name)
	if err := stage.Run(ctx); err != nil {
		return &StageError{Stage: stage.Name, Path: stage.Input, Err: err}
	}
	p.logger().Debug("extraction stage completed", "stage", stage.Name)
	return nil
}

// unwrapInstaller extracts the self-extracting installer into scratch. The
// target is cleared first so reruns never see residue from a failed pass.
func (p *Pipeline) unwrapInstaller(ctx context.Context, installerPath string) error {
	dest := p.Layout.installerDir()
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear installer scratch: %w", err)
	}
	return p.Unarchiver.Extract(ctx, installerPath, dest)
}

// unwrapNestedPackage locates the single nested package inside the
// unwrapped installer and extracts it. Zero or several candidates is fatal.
func (p *Pipeline) unwrapNestedPackage(ctx context.Context) error {
	nested, err := locateNestedPackage(p.Layout.installerDir())
	if err != nil {
		return err
	}
	p.logger().Info("nested package located", "package", filepath.Base(nested))

	dest := p.Layout.packageDir()
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear package scratch: %w", err)
	}
	return p.Unarchiver.Extract(ctx, nested, dest)
}

func locateNestedPackage(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.nupkg"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no nested package (*.nupkg) under %s", dir)
	default:
		names := make([]string, 0, len(matches))
		for _, match := range matches {
			names = append(names, filepath.Base(match))
		}
		return "", fmt.Errorf("%d nested packages under %s, expected exactly one: %s", len(matches), dir, strings.Join(names, ", "))
	}
}

// relocateResources copies the well-known resource paths out of the nested
// package. The packed resource archive is required; the native asset side
// directory and the icons are optional.
func (p *Pipeline) relocateResources(context.Context) error {
	resourcesDir := filepath.Join(p.Layout.packageDir(), "lib", "net45", "resources")

	if err := os.MkdirAll(p.Layout.SourceDir, 0o755); err != nil {
		return fmt.Errorf("create source tree root: %w", err)
	}

	archiveSrc := filepath.Join(resourcesDir, "app.asar")
	if err := fsutil.CopyFile(archiveSrc, p.Layout.ResourceArchivePath(), 0o644); err != nil {
		return fmt.Errorf("copy packed resource archive: %w", err)
	}

	unpackedSrc := filepath.Join(resourcesDir, "app.asar.unpacked")
	if info, err := os.Stat(unpackedSrc); err == nil && info.IsDir() {
		dest := p.Layout.unpackedAssetsDir()
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("clear native asset directory: %w", err)
		}
		if err := fsutil.CopyTree(unpackedSrc, dest); err != nil {
			return fmt.Errorf("copy native asset directory: %w", err)
		}
	}

	return p.relocateIcons()
}

func (p *Pipeline) relocateIcons() error {
	if err := os.MkdirAll(p.Layout.IconsDir, 0o755); err != nil {
		return fmt.Errorf("create icon directory: %w", err)
	}

	for _, pattern := range []string{"*.ico", "*.png"} {
		matches, err := filepath.Glob(filepath.Join(p.Layout.packageDir(), "lib", "net45", pattern))
		if err != nil {
			return err
		}
		for _, match := range matches {
			dest := filepath.Join(p.Layout.IconsDir, filepath.Base(match))
			if err := fsutil.CopyFile(match, dest, 0o644); err != nil {
				p.logger().Warn("skipping icon", "icon", match, "error", err)
			}
		}
	}
	return nil
}

// unpackResourceArchive extracts the packed resource archive into the final
// app tree, replacing any tree left behind by an earlier run.
func (p *Pipeline) unpackResourceArchive(ctx context.Context) error {
	appDir := p.Layout.AppDir()
	if err := os.RemoveAll(appDir); err != nil {
		return fmt.Errorf("clear app tree: %w", err)
	}
	return p.Resources.Extract(ctx, p.Layout.ResourceArchivePath(), appDir)
}

// normalizeScripts rewrites every script under dir in place. The pass is
// idempotent, so rerunning the pipeline reproduces byte-identical trees.
func (p *Pipeline) normalizeScripts(ctx context.Context, dir string) error {
	var scripts []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".js") {
			return nil
		}
		scripts = append(scripts, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("collect scripts: %w", err)
	}

	if len(scripts) == 0 {
		p.logger().Debug("no scripts to normalize", "dir", dir)
		return nil
	}

	sort.Strings(scripts)
	p.logger().Info("normalizing scripts", "count", len(scripts))
	return p.Beautifier.Normalize(ctx, scripts)
}

// cleanup removes the scratch root and the raw resource archive. Only the
// final source tree and the icon collection remain afterwards.
func (p *Pipeline) cleanup() error {
	var cleanupErr error

	if err := os.RemoveAll(p.Layout.ScratchDir); err != nil {
		cleanupErr = errors.Join(cleanupErr, fmt.Errorf("remove scratch root: %w", err))
	}
	if err := os.Remove(p.Layout.ResourceArchivePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cleanupErr = errors.Join(cleanupErr, fmt.Errorf("remove resource archive: %w", err))
	}

	return cleanupErr
}

func (p *Pipeline) logger() *slog.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
