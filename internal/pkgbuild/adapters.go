package pkgbuild

import (
	"context"

	"github.com/decantlabs/decant/internal/container"
	"github.com/decantlabs/decant/internal/history"
	"github.com/decantlabs/decant/internal/run"
	"github.com/decantlabs/decant/internal/tools"
	"github.com/decantlabs/decant/packaging"
)

// Backend stages one package format. Stage prepares the staging tree
// and returns the build command together with the artifact path the
// command will produce. The service decides where the command runs.
type Backend interface {
	Format() packaging.Format
	Stage(request Request) (run.Spec, string, error)
}

// ToolProber verifies required host tools before a build.
type ToolProber interface {
	Require(ctx context.Context, required []tools.Tool) error
}

// ContainerEngine provisions build containers and runs commands inside
// them.
type ContainerEngine interface {
	Ensure(ctx context.Context, family container.Family) (container.Handle, error)
	Exec(ctx context.Context, handle container.Handle, spec run.Spec) error
}

// HistoryStore records completed builds.
type HistoryStore interface {
	Append(record history.Record) error
}

var (
	_ ToolProber      = (*tools.Prober)(nil)
	_ ContainerEngine = (*container.Engine)(nil)
	_ HistoryStore    = (*history.Store)(nil)
)
