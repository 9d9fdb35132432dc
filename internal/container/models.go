package container

import (
	"fmt"

	"github.com/decantlabs/decant/packaging"
)

// Family selects which build container a non-native build runs in.
type Family string

const (
	FamilyDebian Family = "debian"
	FamilyFedora Family = "fedora"
)

// namePrefix is shared by every container this tool creates.
const namePrefix = "decant"

// IsValid reports whether f matches a supported container family.
func (f Family) IsValid() bool {
	switch f {
	case FamilyDebian, FamilyFedora:
		return true
	default:
		return false
	}
}

// String returns the family as string.
func (f Family) String() string {
	return string(f)
}

// BaseImage returns the image a family's container is created from.
func (f Family) BaseImage() string {
	switch f {
	case FamilyDebian:
		return "docker.io/library/debian:trixie"
	case FamilyFedora:
		return "registry.fedoraproject.org/fedora:42"
	default:
		return ""
	}
}

// ContainerName returns the canonical container name for the family. One
// container per family, shared across invocations.
func (f Family) ContainerName() string {
	return fmt.Sprintf("%s-%s", namePrefix, f)
}

// PackagingFamily maps the container family onto the packaging family its
// toolchain serves.
func (f Family) PackagingFamily() packaging.Family {
	switch f {
	case FamilyDebian:
		return packaging.FamilyDebian
	case FamilyFedora:
		return packaging.FamilyRPM
	default:
		return packaging.FamilyUnknown
	}
}

// Handle identifies a created (or reused) build container.
type Handle struct {
	Name      string
	BaseImage string
	Family    Family
}
