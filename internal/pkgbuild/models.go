// Package pkgbuild stages and drives the per-format package builds.
package pkgbuild

import (
	"fmt"
	"path/filepath"

	"github.com/decantlabs/decant/packaging"
)

// App identifies the application being repackaged.
type App struct {
	// Name is the lowercase package and binary name.
	Name string
	// DisplayName is the desktop-facing name.
	DisplayName string
	Version     string
}

// Layout locates the directories a build reads and writes. All paths
// are relative to the project directory or absolute.
type Layout struct {
	// SourceDir holds the extracted application sources.
	SourceDir string
	// PackagingDir holds the per-format packaging skeletons.
	PackagingDir string
	// WorkDir holds per-format staging caches.
	WorkDir string
	// OutputDir receives finished artifacts.
	OutputDir string
}

// AppDir is the extracted application tree inside SourceDir.
func (l Layout) AppDir() string {
	return filepath.Join(l.SourceDir, "app")
}

// StageDir is the per-format staging cache.
func (l Layout) StageDir(format packaging.Format) string {
	return filepath.Join(l.WorkDir, string(format))
}

// SkeletonDir is the packaging skeleton checked in for a format.
func (l Layout) SkeletonDir(format packaging.Format) string {
	return filepath.Join(l.PackagingDir, string(format))
}

// Request asks for one package build.
type Request struct {
	Format packaging.Format
	// Clean purges the format's staging cache before building.
	Clean bool
}

// BuildError reports a failed build with the stage that failed.
type BuildError struct {
	Format packaging.Format
	Stage  string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s package: %s: %v", e.Format, e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
