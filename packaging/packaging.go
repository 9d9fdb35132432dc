package packaging

import (
	"fmt"
	"strings"
)

// Format identifies a target Linux package format.
type Format string

const (
	FormatDeb      Format = "deb"
	FormatRPM      Format = "rpm"
	FormatAppImage Format = "appimage"
)

// SupportedFormats returns the full list of buildable formats.
func SupportedFormats() []Format {
	return []Format{FormatDeb, FormatRPM, FormatAppImage}
}

// IsValid reports whether f matches a supported format value.
func (f Format) IsValid() bool {
	switch f {
	case FormatDeb, FormatRPM, FormatAppImage:
		return true
	default:
		return false
	}
}

// String returns the format as string.
func (f Format) String() string {
	return string(f)
}

// Extension returns the artifact file extension for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatDeb:
		return ".deb"
	case FormatRPM:
		return ".rpm"
	case FormatAppImage:
		return ".AppImage"
	default:
		return ""
	}
}

// RequiredFamily returns the packaging family a format's build toolchain
// belongs to. The second result is false for formats that build anywhere.
func (f Format) RequiredFamily() (Family, bool) {
	switch f {
	case FormatDeb:
		return FamilyDebian, true
	case FormatRPM:
		return FamilyRPM, true
	default:
		return FamilyUnknown, false
	}
}

// ParseFormat returns the canonical Format for the provided string or an
// error if unsupported.
func ParseFormat(value string) (Format, error) {
	if format := NormalizeFormat(value); format != "" {
		return format, nil
	}
	return "", fmt.Errorf("unsupported package format %q (supported: %s)", value, strings.Join(formatStrings(), ", "))
}

// MustParseFormat is like ParseFormat but panics on error.
func MustParseFormat(value string) Format {
	format, err := ParseFormat(value)
	if err != nil {
		panic(err)
	}
	return format
}

// NormalizeFormat maps a possibly ambiguous string into a canonical Format.
// Returns "" when the string cannot be normalized.
func NormalizeFormat(value string) Format {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case string(FormatDeb), ".deb":
		return FormatDeb
	case string(FormatRPM), ".rpm":
		return FormatRPM
	case string(FormatAppImage), ".appimage", "appimg":
		return FormatAppImage
	default:
		return ""
	}
}

func formatStrings() []string {
	all := SupportedFormats()
	out := make([]string, 0, len(all))
	for _, f := range all {
		out = append(out, f.String())
	}
	return out
}

// Family groups Linux distributions sharing a native package format and
// build toolchain.
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyRPM     Family = "rpm"
	FamilyUnknown Family = "unknown"
)

// IsValid reports whether f matches a known family value.
func (f Family) IsValid() bool {
	switch f {
	case FamilyDebian, FamilyRPM, FamilyUnknown:
		return true
	default:
		return false
	}
}

// String returns the family as string.
func (f Family) String() string {
	return string(f)
}
