package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/decantlabs/decant/internal/run"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Unarchiver extracts a generic archive into a directory.
type Unarchiver interface {
	Extract(ctx context.Context, archive, destDir string) error
}

// ResourceArchiver unpacks the application's packed resource archive.
type ResourceArchiver interface {
	Extract(ctx context.Context, archive, destDir string) error
}

// Beautifier rewrites script files into canonical, human-readable form in
// place. The rewrite must be idempotent.
type Beautifier interface {
	Normalize(ctx context.Context, scripts []string) error
}

var (
	_ Downloader       = (*CurlDownloader)(nil)
	_ Unarchiver       = (*SevenZipUnarchiver)(nil)
	_ ResourceArchiver = (*AsarArchiver)(nil)
	_ Beautifier       = (*NPXBeautifier)(nil)
)

// CurlDownloader fetches files via the curl CLI.
type CurlDownloader struct {
	Runner run.Runner
}

func (d *CurlDownloader) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	spec := run.Spec{
		Name: "curl",
		Args: []string{"--fail", "--location", "--output", dest, url},
	}
	if err := d.Runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

// SevenZipUnarchiver extracts archives via the 7z CLI. It handles both the
// self-extracting installer and the nested package, which are plain 7-Zip
// and zip payloads underneath.
type SevenZipUnarchiver struct {
	Runner run.Runner
}

func (u *SevenZipUnarchiver) Extract(ctx context.Context, archive, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	spec := run.Spec{
		Name: "7z",
		Args: []string{"x", "-y", "-o" + destDir, archive},
	}
	if err := u.Runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}
	return nil
}

// AsarArchiver unpacks asar archives through the Node package runner.
type AsarArchiver struct {
	Runner run.Runner
}

func (a *AsarArchiver) Extract(ctx context.Context, archive, destDir string) error {
	spec := run.Spec{
		Name: "npx",
		Args: []string{"--no-install", "asar", "extract", archive, destDir},
	}
	if err := a.Runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("unpack resource archive %s: %w", archive, err)
	}
	return nil
}

// NPXBeautifier normalizes scripts in place through js-beautify. Running it
// over already-normalized files reproduces the same bytes.
type NPXBeautifier struct {
	Runner run.Runner
}

func (b *NPXBeautifier) Normalize(ctx context.Context, scripts []string) error {
	if len(scripts) == 0 {
		return nil
	}

	args := append([]string{"--no-install", "js-beautify", "--replace", "--end-with-newline"}, scripts...)
	spec := run.Spec{Name: "npx", Args: args}
	if err := b.Runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("normalize %d scripts: %w", len(scripts), err)
	}
	return nil
}
