package simple

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/decantlabs/decant/internal/extract"
	"github.com/decantlabs/decant/internal/pkgbuild"
	"github.com/decantlabs/decant/packaging"
)

// ProfileFileName is the per-project override looked up next to the
// packaging skeletons.
const ProfileFileName = "decant.yaml"

// Profile describes the vendor application being repackaged and the
// project directory layout. The embedded default targets Quill.
type Profile struct {
	AppName     string `yaml:"app_name"`
	DisplayName string `yaml:"display_name"`
	Version     string `yaml:"version"`

	// InstallerURL is the vendor download, with {version} substituted
	// from Version.
	InstallerURL string `yaml:"installer_url"`

	FormatPreference []string `yaml:"format_preference"`
	NormalizeSubdir  string   `yaml:"normalize_subdir"`

	SourceDir    string `yaml:"source_dir"`
	WorkDir      string `yaml:"work_dir"`
	OutputDir    string `yaml:"output_dir"`
	PackagingDir string `yaml:"packaging_dir"`
}

// LoadProfile returns the embedded default profile overlaid with the
// project's decant.yaml when one exists. An explicit path must exist.
func LoadProfile(projectDir, explicitPath string) (Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(embeddedProfile, &profile); err != nil {
		return Profile{}, fmt.Errorf("parsing embedded profile: %w", err)
	}

	overlay := explicitPath
	if overlay == "" {
		candidate := filepath.Join(projectDir, ProfileFileName)
		if _, err := os.Stat(candidate); err == nil {
			overlay = candidate
		}
	}

	if overlay != "" {
		data, err := os.ReadFile(overlay)
		if errors.Is(err, fs.ErrNotExist) {
			return Profile{}, fmt.Errorf("profile %s does not exist", overlay)
		}
		if err != nil {
			return Profile{}, fmt.Errorf("reading profile %s: %w", overlay, err)
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return Profile{}, fmt.Errorf("parsing profile %s: %w", overlay, err)
		}
	}

	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Validate reports the first problem that would break a later command.
func (p Profile) Validate() error {
	if p.AppName == "" {
		return fmt.Errorf("profile is missing app_name")
	}
	if p.Version == "" {
		return fmt.Errorf("profile is missing version")
	}
	if p.InstallerURL == "" {
		return fmt.Errorf("profile is missing installer_url")
	}
	if _, err := url.Parse(p.InstallerDownloadURL()); err != nil {
		return fmt.Errorf("profile installer_url is not a valid URL: %w", err)
	}
	if len(p.FormatPreference) == 0 {
		return fmt.Errorf("profile is missing format_preference")
	}
	if _, err := p.Formats(); err != nil {
		return err
	}
	return nil
}

// InstallerDownloadURL substitutes the version into the installer URL.
func (p Profile) InstallerDownloadURL() string {
	return strings.ReplaceAll(p.InstallerURL, "{version}", p.Version)
}

// InstallerFileName is the local name for the downloaded installer.
func (p Profile) InstallerFileName() string {
	parsed, err := url.Parse(p.InstallerDownloadURL())
	if err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			return base
		}
	}
	return p.AppName + "-installer.exe"
}

// Formats returns the launch preference order as typed formats.
func (p Profile) Formats() ([]packaging.Format, error) {
	formats := make([]packaging.Format, 0, len(p.FormatPreference))
	for _, name := range p.FormatPreference {
		format, err := packaging.ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("profile format_preference: %w", err)
		}
		formats = append(formats, format)
	}
	return formats, nil
}

// App returns the build identity of the profiled application.
func (p Profile) App() pkgbuild.App {
	display := p.DisplayName
	if display == "" {
		display = p.AppName
	}
	return pkgbuild.App{Name: p.AppName, DisplayName: display, Version: p.Version}
}

// BuildLayout resolves the build directories against the project
// directory.
func (p Profile) BuildLayout(projectDir string) pkgbuild.Layout {
	return pkgbuild.Layout{
		SourceDir:    filepath.Join(projectDir, p.SourceDir),
		PackagingDir: filepath.Join(projectDir, p.PackagingDir),
		WorkDir:      filepath.Join(projectDir, p.WorkDir),
		OutputDir:    filepath.Join(projectDir, p.OutputDir),
	}
}

// ExtractLayout resolves the extraction directories against the
// project directory.
func (p Profile) ExtractLayout(projectDir string) extract.Layout {
	sourceDir := filepath.Join(projectDir, p.SourceDir)
	return extract.Layout{
		ScratchDir: filepath.Join(projectDir, p.WorkDir, "extract"),
		SourceDir:  sourceDir,
		IconsDir:   filepath.Join(sourceDir, "icons"),
	}
}

// InstallerPath is where the downloaded installer lands before
// extraction.
func (p Profile) InstallerPath(projectDir string) string {
	return filepath.Join(projectDir, p.WorkDir, p.InstallerFileName())
}
