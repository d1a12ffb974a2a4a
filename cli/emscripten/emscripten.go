// Package emscripten locates an Emscripten toolchain installation so
// its paths can be exported to the build environment.
package emscripten

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Toolchain holds the resolved installation paths.
type Toolchain struct {
	// Root of the Emscripten tools (directory containing emcc)
	EmscriptenPath string
	// Root of the bundled LLVM/fastcomp toolchain
	LLVMPath string
	// Optional binaryen installation, empty when absent
	BinaryenPath string
}

// Provision locates an Emscripten installation. When useSystem is set
// the system-wide install is preferred over an emsdk checkout; wasm
// selects the WebAssembly-capable backend. A nil result means no
// installation was found, which is not fatal: the environment may
// already carry a working toolchain configuration.
func Provision(logger zerolog.Logger, useSystem, wasm bool) *Toolchain {
	probes := []func() *Toolchain{
		func() *Toolchain { return fromEmsdk(os.Getenv, dirExists, wasm) },
		func() *Toolchain { return fromSystem(exec.LookPath, os.Getenv) },
	}
	if useSystem {
		probes[0], probes[1] = probes[1], probes[0]
	}

	for _, probe := range probes {
		if tc := probe(); tc != nil {
			logger.Debug().
				Str("emscripten", tc.EmscriptenPath).
				Str("llvm", tc.LLVMPath).
				Bool("wasm", wasm).
				Msg("Located Emscripten toolchain")
			return tc
		}
	}

	logger.Debug().Msg("No Emscripten installation found; relying on the ambient environment")
	return nil
}

// fromEmsdk resolves the toolchain from an emsdk checkout pointed at
// by the EMSDK environment variable. The asm.js backend lives in the
// checkout's fastcomp tree, the WebAssembly backend in upstream.
func fromEmsdk(getenv func(string) string, exists func(string) bool, wasm bool) *Toolchain {
	root := getenv("EMSDK")
	if root == "" {
		return nil
	}

	backend := "fastcomp"
	if wasm {
		backend = "upstream"
	}

	emscripten := filepath.Join(root, backend, "emscripten")
	llvm := filepath.Join(root, backend, "bin")
	if !exists(emscripten) || !exists(llvm) {
		return nil
	}

	tc := &Toolchain{
		EmscriptenPath: emscripten,
		LLVMPath:       llvm,
	}
	// Only the WebAssembly backend carries a binaryen install.
	if wasm {
		if binaryen := filepath.Join(root, backend); exists(filepath.Join(binaryen, "lib", "binaryen")) {
			tc.BinaryenPath = binaryen
		}
	}
	return tc
}

// fromSystem resolves a system-wide installation by probing for emcc
// on the search path.
func fromSystem(lookPath func(string) (string, error), getenv func(string) string) *Toolchain {
	emcc, err := lookPath("emcc")
	if err != nil {
		return nil
	}

	root := filepath.Dir(emcc)
	llvm := getenv("LLVM")
	if llvm == "" {
		llvm = root
	}

	return &Toolchain{
		EmscriptenPath: root,
		LLVMPath:       llvm,
		BinaryenPath:   getenv("BINARYEN"),
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
