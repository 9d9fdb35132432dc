package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// stubUnarchiver simulates 7z by writing a canned payload per archive kind.
type stubUnarchiver struct {
	payloads map[string]func(destDir string) error
	archives []string
}

func (s *stubUnarchiver) Extract(_ context.Context, archive, destDir string) error {
	s.archives = append(s.archives, archive)
	payload, ok := s.payloads[strings.ToLower(filepath.Ext(archive))]
	if !ok {
		return fmt.Errorf("unexpected archive %s", archive)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return payload(destDir)
}

type stubResources struct {
	calls int
	write func(destDir string) error
}

func (s *stubResources) Extract(_ context.Context, _, destDir string) error {
	s.calls++
	return s.write(destDir)
}

type stubBeautifier struct {
	batches [][]string
	err     error
}

func (s *stubBeautifier) Normalize(_ context.Context, scripts []string) error {
	batch := append([]string(nil), scripts...)
	s.batches = append(s.batches, batch)
	return s.err
}

func TestPipelineRunsAllStages(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	unarchiver := &stubUnarchiver{payloads: map[string]func(string) error{
		".exe":   installerPayload(t, true),
		".nupkg": packagePayload(t, true, true),
	}}
	resources := &stubResources{write: appTreePayload(t)}
	beautifier := &stubBeautifier{}

	pipeline := &Pipeline{
		Unarchiver:      unarchiver,
		Resources:       resources,
		Beautifier:      beautifier,
		Layout:          layout,
		NormalizeSubdir: "dist",
	}

	if err := pipeline.Run(context.Background(), installer); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// final tree and icon collection remain
	for _, path := range []string{
		filepath.Join(layout.AppDir(), "dist", "main.js"),
		filepath.Join(layout.AppDir(), "package.json"),
		filepath.Join(layout.unpackedAssetsDir(), "native.node"),
		filepath.Join(layout.IconsDir, "quill.ico"),
		filepath.Join(layout.IconsDir, "quill.png"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected output %s missing: %v", path, err)
		}
	}

	// scratch and the raw archive are gone on success
	if _, err := os.Stat(layout.ScratchDir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("scratch root still present after success (stat err = %v)", err)
	}
	if _, err := os.Stat(layout.ResourceArchivePath()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("raw resource archive still present after success (stat err = %v)", err)
	}

	if len(beautifier.batches) != 1 {
		t.Fatalf("normalize batches = %d, want 1", len(beautifier.batches))
	}
	want := []string{filepath.Join(layout.AppDir(), "dist", "main.js")}
	got := beautifier.batches[0]
	sort.Strings(got)
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("normalized scripts = %v, want %v", got, want)
	}

	if len(unarchiver.archives) != 2 {
		t.Fatalf("unarchive calls = %d, want 2 (installer, nested package)", len(unarchiver.archives))
	}
}

func TestPipelineRerunProducesIdenticalTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	newPipeline := func() *Pipeline {
		return &Pipeline{
			Unarchiver: &stubUnarchiver{payloads: map[string]func(string) error{
				".exe":   installerPayload(t, true),
				".nupkg": packagePayload(t, true, false),
			}},
			Resources:       &stubResources{write: appTreePayload(t)},
			Beautifier:      &stubBeautifier{},
			Layout:          layout,
			NormalizeSubdir: "dist",
		}
	}

	if err := newPipeline().Run(context.Background(), installer); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := snapshotTree(t, layout.SourceDir)

	if err := newPipeline().Run(context.Background(), installer); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := snapshotTree(t, layout.SourceDir)

	if len(first) != len(second) {
		t.Fatalf("tree size differs across reruns: %d vs %d", len(first), len(second))
	}
	for path, content := range first {
		if second[path] != content {
			t.Fatalf("file %s differs across reruns", path)
		}
	}
}

func TestPipelineFailsOnAmbiguousNestedPackage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	unarchiver := &stubUnarchiver{payloads: map[string]func(string) error{
		".exe": func(destDir string) error {
			writeTestFile(t, filepath.Join(destDir, "Quill-2.3.1-full.nupkg"), "a")
			writeTestFile(t, filepath.Join(destDir, "Quill-2.3.1-delta.nupkg"), "b")
			return nil
		},
	}}
	resources := &stubResources{write: appTreePayload(t)}

	pipeline := &Pipeline{
		Unarchiver: unarchiver,
		Resources:  resources,
		Beautifier: &stubBeautifier{},
		Layout:     layout,
	}

	err := pipeline.Run(context.Background(), installer)
	assertStageError(t, err, "unwrap nested package")

	if resources.calls != 0 {
		t.Fatalf("resource archive unpacked after fatal discovery error")
	}
	// scratch preserved for inspection
	if _, statErr := os.Stat(layout.installerDir()); statErr != nil {
		t.Fatalf("installer scratch removed after failure: %v", statErr)
	}
}

func TestPipelineFailsWithoutNestedPackage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	pipeline := &Pipeline{
		Unarchiver: &stubUnarchiver{payloads: map[string]func(string) error{
			".exe": installerPayload(t, false),
		}},
		Resources:  &stubResources{write: appTreePayload(t)},
		Beautifier: &stubBeautifier{},
		Layout:     layout,
	}

	err := pipeline.Run(context.Background(), installer)
	assertStageError(t, err, "unwrap nested package")
}

func TestPipelineFatalWhenResourceArchiveMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	pipeline := &Pipeline{
		Unarchiver: &stubUnarchiver{payloads: map[string]func(string) error{
			".exe":   installerPayload(t, true),
			".nupkg": packagePayload(t, false, true),
		}},
		Resources:  &stubResources{write: appTreePayload(t)},
		Beautifier: &stubBeautifier{},
		Layout:     layout,
	}

	err := pipeline.Run(context.Background(), installer)
	assertStageError(t, err, "relocate resources")
}

func TestPipelineToleratesMissingOptionalAssets(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := testLayout(root)
	installer := filepath.Join(root, "QuillSetup-2.3.1.exe")
	writeTestFile(t, installer, "installer-bytes")

	pipeline := &Pipeline{
		Unarchiver: &stubUnarchiver{payloads: map[string]func(string) error{
			".exe": installerPayload(t, true),
			// resource archive only: no icons, no native asset directory
			".nupkg": packagePayload(t, true, false),
		}},
		Resources:       &stubResources{write: appTreePayload(t)},
		Beautifier:      &stubBeautifier{},
		Layout:          layout,
		NormalizeSubdir: "dist",
	}

	if err := pipeline.Run(context.Background(), installer); err != nil {
		t.Fatalf("Run() error = %v, want optional assets skipped", err)
	}

	if _, err := os.Stat(filepath.Join(layout.AppDir(), "dist", "main.js")); err != nil {
		t.Fatalf("app tree missing: %v", err)
	}
}

func TestPipelineRejectsMissingInstaller(t *testing.T) {
	t.Parallel()

	layout := testLayout(t.TempDir())
	pipeline := &Pipeline{
		Unarchiver: &stubUnarchiver{},
		Resources:  &stubResources{write: appTreePayload(t)},
		Beautifier: &stubBeautifier{},
		Layout:     layout,
	}

	err := pipeline.Run(context.Background(), filepath.Join(layout.ScratchDir, "absent.exe"))
	assertStageError(t, err, "unwrap installer")
}

func testLayout(root string) Layout {
	return Layout{
		ScratchDir: filepath.Join(root, "work", "extract"),
		SourceDir:  filepath.Join(root, "sources"),
		IconsDir:   filepath.Join(root, "sources", "icons"),
	}
}

// installerPayload fills the installer scratch; withPackage controls
// whether the single nested package appears.
func installerPayload(t *testing.T, withPackage bool) func(string) error {
	return func(destDir string) error {
		t.Helper()
		writeTestFile(t, filepath.Join(destDir, "Setup.exe.config"), "<xml/>")
		if withPackage {
			writeTestFile(t, filepath.Join(destDir, "Quill-2.3.1-full.nupkg"), "nupkg-bytes")
		}
		return nil
	}
}

// packagePayload fills the nested package scratch.
func packagePayload(t *testing.T, withArchive, withExtras bool) func(string) error {
	return func(destDir string) error {
		t.Helper()
		if withArchive {
			writeTestFile(t, filepath.Join(destDir, "lib", "net45", "resources", "app.asar"), "asar-bytes")
		}
		if withExtras {
			writeTestFile(t, filepath.Join(destDir, "lib", "net45", "resources", "app.asar.unpacked", "native.node"), "node-bytes")
			writeTestFile(t, filepath.Join(destDir, "lib", "net45", "quill.ico"), "ico-bytes")
			writeTestFile(t, filepath.Join(destDir, "lib", "net45", "quill.png"), "png-bytes")
		}
		return nil
	}
}

func appTreePayload(t *testing.T) func(string) error {
	return func(destDir string) error {
		t.Helper()
		writeTestFile(t, filepath.Join(destDir, "package.json"), `{"name":"quill"}`)
		writeTestFile(t, filepath.Join(destDir, "dist", "main.js"), "const a=1;\n")
		writeTestFile(t, filepath.Join(destDir, "dist", "styles.css"), "body{}\n")
		return nil
	}
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()

	tree := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", root, err)
	}
	return tree
}

func assertStageError(t *testing.T, err error, stage string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected stage %q failure, got nil", stage)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %T (%v), want *StageError", err, err)
	}
	if stageErr.Stage != stage {
		t.Fatalf("failed stage = %q, want %q", stageErr.Stage, stage)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%q) error = %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q) error = %v", path, err)
	}
}
