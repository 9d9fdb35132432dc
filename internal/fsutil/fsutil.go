// Package fsutil holds the directory staging helpers shared by the
// extraction pipeline and the package backends.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyTree mirrors the contents of srcDir into dstDir, creating dstDir as
// needed. Regular files and directories only; symlinks are rejected.
func CopyTree(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dstDir, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode()

		if mode&os.ModeSymlink != 0 {
			return fmt.Errorf("symlinks are not supported in staged trees (%s)", path)
		}

		if d.IsDir() {
			if rel == "." {
				return os.MkdirAll(dstDir, mode.Perm())
			}
			return os.MkdirAll(targetPath, mode.Perm())
		}

		if !mode.IsRegular() {
			return fmt.Errorf("unsupported file type %s in %s", mode, path)
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return err
		}

		return CopyFile(path, targetPath, mode.Perm())
	})
}

// CopyFile copies src to dst with the provided permissions, truncating any
// existing file.
func CopyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
