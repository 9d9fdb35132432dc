package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/internal/fsutil"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/packaging"
)

// DebBackend stages a dpkg-deb package root. The checked-in skeleton
// provides DEBIAN/control and the desktop entry, the extracted
// application tree lands under opt/<name>.
type DebBackend struct {
	App    App
	Layout Layout
}

var _ Backend = (*DebBackend)(nil)

func (b *DebBackend) Format() packaging.Format {
	return packaging.FormatDeb
}

func (b *DebBackend) Stage(request Request) (run.Spec, string, error) {
	stage := b.Layout.StageDir(packaging.FormatDeb)
	if request.Clean {
		if err := os.RemoveAll(stage); err != nil {
			return run.Spec{}, "", fmt.Errorf("purging deb staging cache %s: %w", stage, err)
		}
	}

	if err := fsutil.CopyTree(b.Layout.SkeletonDir(packaging.FormatDeb), stage); err != nil {
		return run.Spec{}, "", fmt.Errorf("staging deb skeleton: %w", err)
	}
	payload := filepath.Join(stage, "opt", b.App.Name)
	if err := fsutil.CopyTree(b.Layout.AppDir(), payload); err != nil {
		return run.Spec{}, "", fmt.Errorf("staging application tree: %w", err)
	}

	artifact := filepath.Join(b.Layout.OutputDir,
		fmt.Sprintf("%s_%s_amd64.deb", b.App.Name, b.App.Version))
	spec := run.Spec{
		Name: "dpkg-deb",
		Args: []string{"--build", "--root-owner-group", stage, artifact},
	}
	return spec, artifact, nil
}
