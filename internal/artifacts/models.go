// Package artifacts locates packaged build outputs on disk.
package artifacts

import (
	"time"

	"github.com/decantlabs/decant/packaging"
)

// Artifact is a packaged build output found on disk.
type Artifact struct {
	Path    string
	Format  packaging.Format
	ModTime time.Time
}
