package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func mustGetwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	return dir
}

func resolved(t *testing.T, dir string) string {
	t.Helper()
	// /tmp is a symlink on some platforms.
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks(%s) error = %v", dir, err)
	}
	return real
}

func TestEnterDirAndRestore(t *testing.T) {
	original := mustGetwd(t)
	target := t.TempDir()

	scope, err := enterDir(target)
	if err != nil {
		t.Fatalf("enterDir() error = %v", err)
	}
	if got := resolved(t, mustGetwd(t)); got != resolved(t, target) {
		t.Errorf("Getwd() after enterDir = %v, want %v", got, target)
	}

	if err := scope.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := resolved(t, mustGetwd(t)); got != resolved(t, original) {
		t.Errorf("Getwd() after Restore = %v, want %v", got, original)
	}
}

func TestEnterDirRestoresAfterFailure(t *testing.T) {
	original := mustGetwd(t)
	target := t.TempDir()

	// The deferred Restore must run on the failure path too.
	func() {
		scope, err := enterDir(target)
		if err != nil {
			t.Fatalf("enterDir() error = %v", err)
		}
		defer scope.Restore()

		// Simulate a failed run inside the scope.
	}()

	if got := resolved(t, mustGetwd(t)); got != resolved(t, original) {
		t.Errorf("Getwd() after scope exit = %v, want %v", got, original)
	}
}

func TestEnterDirMissingDirectory(t *testing.T) {
	original := mustGetwd(t)

	if _, err := enterDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("enterDir() expected an error for a missing directory")
	}
	if got := mustGetwd(t); got != original {
		t.Errorf("Getwd() after failed enterDir = %v, want %v", got, original)
	}
}
