package cli

// workdir.go scopes changes to the process working directory.
//
// The working directory is the only process-wide mutable state this
// tool touches. One invocation per process is assumed; this is not
// safe for concurrent use.

import (
	"fmt"
	"os"
)

type scopedDir struct {
	prev string
}

// enterDir switches the working directory and remembers the previous
// one. The caller must invoke Restore on every exit path, normally
// via defer.
func enterDir(dir string) (*scopedDir, error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to read the working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("failed to change the working directory to %s: %w", dir, err)
	}
	return &scopedDir{prev: prev}, nil
}

// Restore switches back to the directory that was current when
// enterDir was called.
func (d *scopedDir) Restore() error {
	if err := os.Chdir(d.prev); err != nil {
		return fmt.Errorf("failed to restore the working directory to %s: %w", d.prev, err)
	}
	return nil
}
