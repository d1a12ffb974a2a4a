package wasm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ootoovak/cargo-web/model"
)

func TestProcessWasmFile(t *testing.T) {
	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "app.wasm")
	require.NoError(t, os.WriteFile(wasmPath, []byte{0x00, 0x61, 0x73, 0x6d}, 0o644))

	cfg := &model.BuildConfig{Triplet: model.TripletWasmUnknown}
	derived, err := ProcessWasmFile(cfg, wasmPath)
	require.NoError(t, err)

	loaderPath := filepath.Join(dir, "app.js")
	require.Equal(t, []string{loaderPath}, derived)

	loader, err := os.ReadFile(loaderPath)
	require.NoError(t, err)
	require.Contains(t, string(loader), `"app.wasm"`)
	require.Contains(t, string(loader), "WebAssembly.instantiate")
}

func TestProcessWasmFileIgnoresOtherTriplets(t *testing.T) {
	for _, triplet := range []model.Triplet{model.TripletAsmjsEmscripten, model.TripletWasmEmscripten} {
		cfg := &model.BuildConfig{Triplet: triplet}
		derived, err := ProcessWasmFile(cfg, "/out/app.wasm")
		require.NoError(t, err)
		require.Empty(t, derived)
	}
}

func TestProcessWasmFileIgnoresNonWasmArtifacts(t *testing.T) {
	cfg := &model.BuildConfig{Triplet: model.TripletWasmUnknown}
	derived, err := ProcessWasmFile(cfg, "/out/app.d")
	require.NoError(t, err)
	require.Empty(t, derived)
}

func TestLoaderSignalsCompletion(t *testing.T) {
	loader := Loader("app.wasm")
	// The loader cooperates with the browser harness page when one is
	// present and falls back to the process exit code under node.js.
	require.Contains(t, loader, "__cargo_web_done")
	require.Contains(t, loader, "process.exit")
	require.Contains(t, loader, "exports.main()")
}
