// Package hostenv classifies the host into a packaging family from
// well-known filesystem markers.
package hostenv

import (
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/packaging"
)

// Profile captures what the classifier learned about the host.
type Profile struct {
	Family packaging.Family
}

// Markers are checked in order; the first hit wins. Distributions derived
// from Debian ship /etc/debian_version, RPM-based ones /etc/redhat-release.
var markers = []struct {
	path   string
	family packaging.Family
}{
	{"etc/debian_version", packaging.FamilyDebian},
	{"etc/redhat-release", packaging.FamilyRPM},
}

// Detect classifies the running host.
func Detect() Profile {
	return DetectAt("/")
}

// DetectAt classifies the filesystem rooted at root.
func DetectAt(root string) Profile {
	for _, marker := range markers {
		info, err := os.Stat(filepath.Join(root, marker.path))
		if err != nil || info.IsDir() {
			continue
		}
		return Profile{Family: marker.family}
	}
	return Profile{Family: packaging.FamilyUnknown}
}
