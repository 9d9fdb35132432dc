// Package paths resolves the per-user files decant keeps outside the
// project directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const stateDirName = "decant"

// LaunchLogPath returns the persistent launch log, creating its parent
// directory when missing.
func LaunchLogPath() (string, error) {
	return stateFile("launch.log")
}

// HistoryPath returns the build history ledger, creating its parent
// directory when missing.
func HistoryPath() (string, error) {
	return stateFile("history.json")
}

func stateFile(name string) (string, error) {
	dir := filepath.Join(xdg.StateHome, stateDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

// SingletonLockPath returns the lock file the desktop application
// leaves in its configuration directory while an instance runs.
func SingletonLockPath(displayName string) string {
	return filepath.Join(xdg.ConfigHome, displayName, "SingletonLock")
}
