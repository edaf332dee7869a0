package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	t.Run("creates the data directory", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "deskinit")

		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() error: %v", err)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat after EnsureDir: %v", err)
		}
		if !info.IsDir() {
			t.Fatal("expected a directory")
		}
	})

	t.Run("creates missing intermediate directories", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "var", "lib", "deskinit")

		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() error: %v", err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("stat after EnsureDir: %v", err)
		}
	})

	t.Run("existing directory is not an error", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		// Run twice; the supervisor calls this on every start against a
		// data dir that usually survives container restarts.
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() first call error: %v", err)
		}
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() second call error: %v", err)
		}
	})

	t.Run("path occupied by a file fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "deskinit")
		if err := os.WriteFile(path, []byte("in the way"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		if err := EnsureDir(path); err == nil {
			t.Fatal("expected error when a file occupies the directory path")
		}
	})
}

func TestEnsureDirForFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		relPath []string
	}{
		"parent one level down":  {relPath: []string{"logs", "web.log"}},
		"parent several deep":    {relPath: []string{"a", "b", "c", "api.log"}},
		"parent already present": {relPath: []string{"journal.db"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			elems := append([]string{t.TempDir()}, tc.relPath...)
			filePath := filepath.Join(elems...)

			if err := EnsureDirForFile(filePath); err != nil {
				t.Fatalf("EnsureDirForFile() error: %v", err)
			}

			info, err := os.Stat(filepath.Dir(filePath))
			if err != nil {
				t.Fatalf("stat parent: %v", err)
			}
			if !info.IsDir() {
				t.Fatal("expected parent to be a directory")
			}
			// The file itself must not have been created.
			if _, err := os.Stat(filePath); !os.IsNotExist(err) {
				t.Errorf("stat file = %v, want not-exist", err)
			}
		})
	}
}
