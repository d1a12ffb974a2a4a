package model

// Triplet selects the compilation backend and runtime model.
type Triplet uint8

const (
	// Emscripten's asm.js output, the historical default
	TripletAsmjsEmscripten Triplet = iota
	// WebAssembly through the Emscripten toolchain
	TripletWasmEmscripten
	// Native WebAssembly (wasm32-unknown-unknown)
	TripletWasmUnknown
)

func (t Triplet) String() string {
	switch t {
	case TripletWasmUnknown:
		return "wasm32-unknown-unknown"
	case TripletWasmEmscripten:
		return "wasm32-unknown-emscripten"
	default:
		return "asmjs-unknown-emscripten"
	}
}

// IsEmscripten reports whether the triplet compiles through the
// Emscripten toolchain.
func (t Triplet) IsEmscripten() bool {
	return t != TripletWasmUnknown
}

// IsWasm reports whether the triplet produces a WebAssembly binary.
func (t Triplet) IsWasm() bool {
	return t != TripletAsmjsEmscripten
}

// IsNativeWasm reports whether the triplet is wasm32-unknown-unknown.
func (t Triplet) IsNativeWasm() bool {
	return t == TripletWasmUnknown
}
