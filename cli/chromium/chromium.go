// Package chromium runs compiled test artifacts inside a headless
// Chromium and reads the pass/fail outcome back out of the DOM.
package chromium

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ootoovak/cargo-web/model"
)

// Markers the runner page writes into the document title once the
// test script finishes.
const (
	markerPassed = "cargo-web:passed"
	markerFailed = "cargo-web:failed"
)

// Runner executes builds in a headless browser.
type Runner struct {
	logger   zerolog.Logger
	lookPath func(string) (string, error)
	goos     string
}

func New(logger zerolog.Logger) *Runner {
	return &Runner{
		logger:   logger,
		lookPath: exec.LookPath,
		goos:     runtime.GOOS,
	}
}

// Run serves the build's artifacts on a loopback listener, loads the
// runner page in headless Chromium and scans the dumped DOM for the
// test outcome. It returns whether the tests passed; errors are
// environmental, not test failures.
func (r *Runner) Run(cfg *model.BuildConfig, build model.BuildResult, passthrough []string) (bool, error) {
	exe, err := r.findExecutable()
	if err != nil {
		return false, err
	}

	script, ok := build.ArtifactByExt(".js")
	if !ok {
		panic("internal error: no .js file found")
	}

	dir := filepath.Dir(script)
	if cfg.Triplet.IsWasm() {
		// The loader expects the .wasm binary co-located with the page.
		if wasmArtifact, ok := build.ArtifactByExt(".wasm"); ok {
			dir = filepath.Dir(wasmArtifact)
		}
	}

	page := RunnerPage(filepath.Base(script), passthrough)
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(dir))
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page)
			return
		}
		// The loader may live in a sibling directory on Emscripten targets.
		if req.URL.Path == "/"+filepath.Base(script) && filepath.Dir(script) != dir {
			http.ServeFile(w, req, script)
			return
		}
		files.ServeHTTP(w, req)
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return false, fmt.Errorf("failed to start artifact server: %w", err)
	}
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Close()

	url := fmt.Sprintf("http://%s/", listener.Addr())
	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--virtual-time-budget=60000",
		"--dump-dom",
		url,
	}

	r.logger.Debug().
		Str("executable", exe).
		Str("url", url).
		Msg("Launching headless browser")

	cmd := exec.Command(exe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("failed to run headless browser: %w (stderr: %s)",
			err, strings.TrimSpace(stderr.String()))
	}

	passed, found := ParseStatus(stdout.String())
	if !found {
		return false, fmt.Errorf("the browser reported no test status; the test harness may have hung")
	}
	return passed, nil
}

func (r *Runner) findExecutable() (string, error) {
	for _, name := range CandidateNames(r.goos) {
		if path, err := r.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("chromium not found; please install it, or pass `--nodejs` to run the tests under node.js")
}

// CandidateNames lists the accepted browser executable names for a
// platform, most specific first.
func CandidateNames(goos string) []string {
	switch goos {
	case "windows":
		return []string{"chrome.exe", "chromium.exe"}
	case "darwin":
		return []string{
			"chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	default:
		return []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}
	}
}

// ParseStatus scans a dumped DOM for the runner page's outcome marker.
func ParseStatus(dom string) (passed, found bool) {
	if strings.Contains(dom, markerFailed) {
		return false, true
	}
	if strings.Contains(dom, markerPassed) {
		return true, true
	}
	return false, false
}

// RunnerPage renders the harness page that loads the compiled test
// script, forwards the passthrough arguments and records the outcome
// in the document title for --dump-dom to pick up.
func RunnerPage(scriptName string, passthrough []string) string {
	args, _ := json.Marshal(passthrough)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>cargo-web:running</title></head>
<body>
<script>
    var __cargo_web_finished = false;
    function __cargo_web_done( code ) {
        if( __cargo_web_finished ) { return; }
        __cargo_web_finished = true;
        document.title = (code === 0) ? %q : %q;
    }
    window.onerror = function() { __cargo_web_done( 101 ); };
    var Module = {
        arguments: %s,
        onExit: __cargo_web_done,
        onAbort: function() { __cargo_web_done( 101 ); }
    };
</script>
<script src=%q></script>
</body>
</html>
`, markerPassed, markerFailed, args, scriptName)
}
