package tools

import (
	"strings"

	"github.com/decantlabs/decant/packaging"
)

// Tool pairs a display name with the probe command that proves the tool is
// usable. A tool counts as present only when the probe runs and exits zero.
type Tool struct {
	Name  string
	Probe []string
}

// Status is one row of a doctor report.
type Status struct {
	Tool    Tool
	Present bool
}

// The fixed collaborator table. The asar and js-beautify probes go through
// npx, so they also prove the Node runtime's package runner works.
var (
	Curl         = Tool{Name: "curl", Probe: []string{"curl", "--version"}}
	SevenZip     = Tool{Name: "7z", Probe: []string{"7z", "i"}}
	Asar         = Tool{Name: "asar", Probe: []string{"npx", "--no-install", "asar", "--version"}}
	JSBeautify   = Tool{Name: "js-beautify", Probe: []string{"npx", "--no-install", "js-beautify", "--version"}}
	Distrobox    = Tool{Name: "distrobox", Probe: []string{"distrobox", "--version"}}
	DpkgDeb      = Tool{Name: "dpkg-deb", Probe: []string{"dpkg-deb", "--version"}}
	RPMBuild     = Tool{Name: "rpmbuild", Probe: []string{"rpmbuild", "--version"}}
	AppImageTool = Tool{Name: "appimagetool", Probe: []string{"appimagetool", "--version"}}
)

// All returns every tool the CLI may shell out to, in report order.
func All() []Tool {
	return []Tool{Curl, SevenZip, Asar, JSBeautify, Distrobox, DpkgDeb, RPMBuild, AppImageTool}
}

// ForSources returns the tools the extraction pipeline depends on.
func ForSources() []Tool {
	return []Tool{Curl, SevenZip, Asar, JSBeautify}
}

// ForBuild returns the tools a build needs. A containerized build only
// needs the container runtime on the host; the format's build utility is
// expected inside the container instead.
func ForBuild(format packaging.Format, containerized bool) []Tool {
	if containerized {
		return []Tool{Distrobox}
	}
	switch format {
	case packaging.FormatDeb:
		return []Tool{DpkgDeb}
	case packaging.FormatRPM:
		return []Tool{RPMBuild}
	case packaging.FormatAppImage:
		return []Tool{AppImageTool}
	default:
		return nil
	}
}

// MissingError reports the subset of required tools whose probes failed.
type MissingError struct {
	Tools []Tool
}

func (e *MissingError) Error() string {
	names := make([]string, 0, len(e.Tools))
	for _, tool := range e.Tools {
		names = append(names, tool.Name)
	}
	return "missing required tools: " + strings.Join(names, ", ")
}
