package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/internal/fsutil"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/packaging"
)

// AppImageBackend assembles an AppDir from the checked-in skeleton
// (AppRun, desktop entry, icon) plus the extracted application tree,
// then hands it to appimagetool.
type AppImageBackend struct {
	App    App
	Layout Layout
}

var _ Backend = (*AppImageBackend)(nil)

func (b *AppImageBackend) Format() packaging.Format {
	return packaging.FormatAppImage
}

func (b *AppImageBackend) Stage(request Request) (run.Spec, string, error) {
	stage := b.Layout.StageDir(packaging.FormatAppImage)
	if request.Clean {
		if err := os.RemoveAll(stage); err != nil {
			return run.Spec{}, "", fmt.Errorf("purging appimage staging cache %s: %w", stage, err)
		}
	}

	appDir := filepath.Join(stage, b.App.DisplayName+".AppDir")
	if err := fsutil.CopyTree(b.Layout.SkeletonDir(packaging.FormatAppImage), appDir); err != nil {
		return run.Spec{}, "", fmt.Errorf("staging AppDir skeleton: %w", err)
	}
	payload := filepath.Join(appDir, "opt", b.App.Name)
	if err := fsutil.CopyTree(b.Layout.AppDir(), payload); err != nil {
		return run.Spec{}, "", fmt.Errorf("staging application tree: %w", err)
	}

	appRun := filepath.Join(appDir, "AppRun")
	if err := os.Chmod(appRun, 0o755); err != nil {
		return run.Spec{}, "", fmt.Errorf("marking AppRun executable: %w", err)
	}

	artifact := filepath.Join(b.Layout.OutputDir,
		fmt.Sprintf("%s-%s.AppImage", b.App.DisplayName, b.App.Version))
	spec := run.Spec{
		Name: "appimagetool",
		Args: []string{appDir, artifact},
		Env:  []string{"ARCH=x86_64"},
	}
	return spec, artifact, nil
}
