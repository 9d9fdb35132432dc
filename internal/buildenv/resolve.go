// Package buildenv decides where a build runs: natively on the host, or
// inside a build container whose family matches the requested format.
package buildenv

import (
	"fmt"

	"github.com/decantlabs/decant/internal/container"
	"github.com/decantlabs/decant/internal/hostenv"
	"github.com/decantlabs/decant/packaging"
)

// Mode says whether the build utility runs on the host or in a container.
type Mode string

const (
	ModeNative        Mode = "native"
	ModeContainerized Mode = "containerized"
)

// String returns the mode as string.
func (m Mode) String() string {
	return string(m)
}

// Context is the resolved execution environment for one build. Container is
// set exactly when Mode is ModeContainerized.
type Context struct {
	Mode      Mode
	Container container.Family
}

// Resolve maps (host family, requested format) onto an execution context.
// The table is total over known formats and exactly one rule fires:
//
//   - AppImage builds anywhere, so it always runs natively.
//   - Deb runs natively only on a Debian-family host, otherwise in the
//     Debian container.
//   - Rpm runs natively only on an RPM-family host, otherwise in the
//     Fedora container.
//
// An unknown host family therefore routes deb and rpm into containers.
func Resolve(profile hostenv.Profile, format packaging.Format) (Context, error) {
	switch format {
	case packaging.FormatAppImage:
		return Context{Mode: ModeNative}, nil
	case packaging.FormatDeb:
		if profile.Family == packaging.FamilyDebian {
			return Context{Mode: ModeNative}, nil
		}
		return Context{Mode: ModeContainerized, Container: container.FamilyDebian}, nil
	case packaging.FormatRPM:
		if profile.Family == packaging.FamilyRPM {
			return Context{Mode: ModeNative}, nil
		}
		return Context{Mode: ModeContainerized, Container: container.FamilyFedora}, nil
	default:
		return Context{}, fmt.Errorf("unsupported package format %q", format)
	}
}
