package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/packaging"
)

// RPMBackend drives rpmbuild against the checked-in spec file. The
// staging cache serves as rpmbuild's _topdir, and the finished rpm is
// redirected straight into the output directory.
type RPMBackend struct {
	App    App
	Layout Layout
}

var _ Backend = (*RPMBackend)(nil)

func (b *RPMBackend) Format() packaging.Format {
	return packaging.FormatRPM
}

func (b *RPMBackend) Stage(request Request) (run.Spec, string, error) {
	topdir := b.Layout.StageDir(packaging.FormatRPM)
	if request.Clean {
		if err := os.RemoveAll(topdir); err != nil {
			return run.Spec{}, "", fmt.Errorf("purging rpm staging cache %s: %w", topdir, err)
		}
	}
	if err := os.MkdirAll(topdir, 0o755); err != nil {
		return run.Spec{}, "", fmt.Errorf("creating rpm staging cache %s: %w", topdir, err)
	}

	specPath := filepath.Join(b.Layout.SkeletonDir(packaging.FormatRPM), b.App.Name+".spec")
	if _, err := os.Stat(specPath); err != nil {
		return run.Spec{}, "", fmt.Errorf("rpm spec file not found: %w", err)
	}

	artifact := filepath.Join(b.Layout.OutputDir,
		fmt.Sprintf("%s-%s.x86_64.rpm", b.App.Name, b.App.Version))
	spec := run.Spec{
		Name: "rpmbuild",
		Args: []string{
			"-bb",
			"--define", "_topdir " + topdir,
			"--define", "_rpmdir " + b.Layout.OutputDir,
			"--define", "_rpmfilename " + filepath.Base(artifact),
			"--define", "_sourcedir " + b.Layout.SourceDir,
			"--define", "app_version " + b.App.Version,
			specPath,
		},
	}
	return spec, artifact, nil
}
