package extract

import (
	"context"
	"fmt"
	"path/filepath"
)

// Layout names the directories the pipeline reads and writes. ScratchDir
// holds in-progress extraction state and survives failures for inspection;
// SourceDir and IconsDir are the stable outputs consumed by the package
// backends.
type Layout struct {
	ScratchDir string
	SourceDir  string
	IconsDir   string
}

func (l Layout) installerDir() string {
	return filepath.Join(l.ScratchDir, "installer")
}

func (l Layout) packageDir() string {
	return filepath.Join(l.ScratchDir, "package")
}

// ResourceArchivePath is where the packed resource archive lands before it
// is unpacked. The file is removed again on the success path.
func (l Layout) ResourceArchivePath() string {
	return filepath.Join(l.SourceDir, "app.asar")
}

// AppDir is the root of the unpacked application tree.
func (l Layout) AppDir() string {
	return filepath.Join(l.SourceDir, "app")
}

func (l Layout) unpackedAssetsDir() string {
	return filepath.Join(l.SourceDir, "app.asar.unpacked")
}

// Stage is one step of the fixed extraction sequence. Input, when set, must
// exist before the stage may run; a missing input signals a failed prior
// stage rather than a condition to retry around.
type Stage struct {
	Name  string
	Input string
	Run   func(ctx context.Context) error
}

// StageError identifies which stage of the pipeline failed and on what path.
type StageError struct {
	Stage string
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("extraction stage %q failed on %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("extraction stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
