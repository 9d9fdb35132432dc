package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/packaging"
)

// stubRunner fails every command whose name appears in failing.
type stubRunner struct {
	failing map[string]bool
	ran     []string
}

func (s *stubRunner) Run(_ context.Context, spec run.Spec) error {
	s.ran = append(s.ran, spec.Line())
	if s.failing[spec.Name] {
		return fmt.Errorf("%s: command not found", spec.Name)
	}
	return nil
}

func (s *stubRunner) Output(ctx context.Context, spec run.Spec) (string, error) {
	return "", s.Run(ctx, spec)
}

func TestProberMissingReportsFailedProbes(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{failing: map[string]bool{"dpkg-deb": true}}
	prober := &Prober{Runner: runner}

	missing := prober.Missing(context.Background(), []Tool{Curl, DpkgDeb, SevenZip})

	if len(missing) != 1 || missing[0].Name != DpkgDeb.Name {
		t.Fatalf("Missing() = %v, want [dpkg-deb]", missing)
	}
	if len(runner.ran) != 3 {
		t.Fatalf("probes run = %d, want 3", len(runner.ran))
	}
}

func TestProberRequireReturnsMissingError(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{failing: map[string]bool{"curl": true, "npx": true}}
	prober := &Prober{Runner: runner}

	err := prober.Require(context.Background(), ForSources())
	if err == nil {
		t.Fatalf("Require() = nil, want error")
	}

	var missingErr *MissingError
	if !errors.As(err, &missingErr) {
		t.Fatalf("Require() error = %T, want *MissingError", err)
	}
	if len(missingErr.Tools) != 3 {
		t.Fatalf("missing tools = %d, want 3 (curl, asar, js-beautify)", len(missingErr.Tools))
	}
	if !strings.Contains(err.Error(), "js-beautify") {
		t.Fatalf("error %q does not name js-beautify", err)
	}
}

func TestProberRequireAllPresent(t *testing.T) {
	t.Parallel()

	prober := &Prober{Runner: &stubRunner{}}
	if err := prober.Require(context.Background(), All()); err != nil {
		t.Fatalf("Require() error = %v, want nil", err)
	}
}

func TestProbesInvokePackageRunner(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	prober := &Prober{Runner: runner}
	prober.Missing(context.Background(), []Tool{Asar, JSBeautify})

	for _, line := range runner.ran {
		if !strings.HasPrefix(line, "npx ") {
			t.Fatalf("probe %q does not go through npx", line)
		}
	}
}

func TestForBuildSelectsByModeAndFormat(t *testing.T) {
	t.Parallel()

	if got := ForBuild(packaging.FormatRPM, true); len(got) != 1 || got[0].Name != Distrobox.Name {
		t.Fatalf("ForBuild(rpm, containerized) = %v, want [distrobox]", got)
	}
	if got := ForBuild(packaging.FormatRPM, false); len(got) != 1 || got[0].Name != RPMBuild.Name {
		t.Fatalf("ForBuild(rpm, native) = %v, want [rpmbuild]", got)
	}
	if got := ForBuild(packaging.FormatAppImage, false); len(got) != 1 || got[0].Name != AppImageTool.Name {
		t.Fatalf("ForBuild(appimage, native) = %v, want [appimagetool]", got)
	}
}
