package fileutil

import (
	"fmt"
	"os"
)

// EnsureFile creates the file at path if it does not already exist. Existing
// files are left untouched: a collaborator process may already be appending to
// the file, so truncation would lose its output. The parent directory is
// created if missing.
func EnsureFile(path string) error {
	if err := EnsureDirForFile(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("ensure file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// EnsureFiles calls EnsureFile for each path, stopping at the first failure.
func EnsureFiles(paths []string) error {
	for _, p := range paths {
		if err := EnsureFile(p); err != nil {
			return err
		}
	}
	return nil
}
