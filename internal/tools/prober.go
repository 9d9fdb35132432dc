package tools

import (
	"context"
	"io"
	"log/slog"

	"github.com/decantlabs/decant/internal/run"
)

// Prober judges tool availability by running each tool's version/help probe.
type Prober struct {
	Runner run.Runner
	Logger *slog.Logger
}

// Missing probes every tool and returns the subset judged absent, in input
// order. Probe output is discarded; only the exit status matters.
func (p *Prober) Missing(ctx context.Context, required []Tool) []Tool {
	var missing []Tool
	for _, tool := range required {
		if p.present(ctx, tool) {
			continue
		}
		missing = append(missing, tool)
	}
	return missing
}

// Require returns a MissingError when any of the required tools is absent.
// Callers treat that as a precondition failure and stop before mutating
// anything.
func (p *Prober) Require(ctx context.Context, required []Tool) error {
	missing := p.Missing(ctx, required)
	if len(missing) == 0 {
		return nil
	}
	return &MissingError{Tools: missing}
}

// Report probes every tool and returns one status row per tool.
func (p *Prober) Report(ctx context.Context, all []Tool) []Status {
	report := make([]Status, 0, len(all))
	for _, tool := range all {
		report = append(report, Status{Tool: tool, Present: p.present(ctx, tool)})
	}
	return report
}

func (p *Prober) present(ctx context.Context, tool Tool) bool {
	spec := run.Spec{
		Name:   tool.Probe[0],
		Args:   tool.Probe[1:],
		Stdout: io.Discard,
		Stderr: io.Discard,
	}

	err := p.Runner.Run(ctx, spec)
	if err != nil {
		p.logger().Debug("tool probe failed", "tool", tool.Name, "error", err)
	}
	return err == nil
}

func (p *Prober) logger() *slog.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
