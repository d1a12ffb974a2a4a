package cli

// nodejs.go runs compiled test artifacts under a standalone node.js
// runtime instead of a browser.

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/ootoovak/cargo-web/model"
)

type nodeRunner struct {
	logger   zerolog.Logger
	lookPath func(string) (string, error)
	goos     string
}

func newNodeRunner(logger zerolog.Logger) *nodeRunner {
	return &nodeRunner{
		logger:   logger,
		lookPath: exec.LookPath,
		goos:     runtime.GOOS,
	}
}

// findExecutable probes the accepted platform-dependent names for a
// runnable node.js. Absence is a configuration error, not a crash.
func (n *nodeRunner) findExecutable() (string, error) {
	candidates := []string{"nodejs", "node"}
	if n.goos == "windows" {
		candidates = append([]string{"node.exe"}, candidates...)
	}

	for _, name := range candidates {
		if path, err := n.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", configurationErrorf("node.js not found; please install it!")
}

// runDirFor picks the directory the runtime must execute in. On the
// Emscripten WebAssembly target the .wasm binary sits in a different
// directory than the loader script, and the loader expects its files
// co-located, so the binary's directory wins.
func runDirFor(cfg *model.BuildConfig, build model.BuildResult) (script, dir string) {
	script, ok := build.ArtifactByExt(".js")
	if !ok {
		panic("internal error: no .js file found")
	}

	if cfg.Triplet == model.TripletWasmEmscripten {
		wasmArtifact, ok := build.ArtifactByExt(".wasm")
		if !ok {
			panic("internal error: no .wasm file found")
		}
		return script, filepath.Dir(wasmArtifact)
	}
	return script, filepath.Dir(script)
}

// Run executes one build's test script. The returned bool is the test
// outcome; an error means the run could not be attempted at all. The
// prior working directory is restored on every exit path.
func (n *nodeRunner) Run(cfg *model.BuildConfig, build model.BuildResult, passthrough []string) (passed bool, err error) {
	executable, err := n.findExecutable()
	if err != nil {
		return false, err
	}

	script, dir := runDirFor(cfg, build)

	scope, err := enterDir(dir)
	if err != nil {
		return false, err
	}
	defer func() {
		if restoreErr := scope.Restore(); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	args := append([]string{script}, passthrough...)
	n.logger.Debug().
		Str("command", shellescape.QuoteCommand(append([]string{executable}, args...))).
		Str("dir", dir).
		Msg("Running tests under node.js")

	cmd := exec.Command(executable, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if runErr := cmd.Run(); runErr != nil {
		if _, ok := runErr.(*exec.ExitError); ok {
			// Test failures are expected to return non-zero exit codes.
			return false, nil
		}
		return false, runErr
	}
	return true, nil
}
