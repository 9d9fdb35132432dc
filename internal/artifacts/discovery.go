package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/decantlabs/decant/packaging"
)

// FindLatest returns the most recent artifact, with the format
// preference order ranking above file recency: a format later in the
// preference list is only considered once no candidate of an earlier
// format exists in any searched location. Locations are searched in
// the order given and missing directories are skipped.
func FindLatest(preference []packaging.Format, locations ...string) (Artifact, bool, error) {
	for _, format := range preference {
		for _, dir := range locations {
			artifact, ok, err := newestWithFormat(dir, format)
			if err != nil {
				return Artifact{}, false, err
			}
			if ok {
				return artifact, true, nil
			}
		}
	}
	return Artifact{}, false, nil
}

func newestWithFormat(dir string, format packaging.Format) (Artifact, bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("scanning %s for %s artifacts: %w", dir, format, err)
	}

	var (
		newest Artifact
		found  bool
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), format.Extension()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return Artifact{}, false, fmt.Errorf("inspecting artifact %s: %w", filepath.Join(dir, entry.Name()), err)
		}
		if !found || info.ModTime().After(newest.ModTime) {
			newest = Artifact{
				Path:    filepath.Join(dir, entry.Name()),
				Format:  format,
				ModTime: info.ModTime(),
			}
			found = true
		}
	}
	return newest, found, nil
}
