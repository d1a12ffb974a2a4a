// Package wasm post-processes native WebAssembly build artifacts.
//
// The wasm32-unknown-unknown target emits a bare .wasm binary with no
// way to load it; this package writes the JavaScript loader next to
// the binary so it can run under node.js or in a browser. Emscripten
// targets emit their own loader and need no processing.
package wasm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ootoovak/cargo-web/model"
)

// ProcessWasmFile inspects one build artifact and returns any derived
// artifacts written alongside it. Artifacts that are not native
// WebAssembly binaries are left untouched.
func ProcessWasmFile(cfg *model.BuildConfig, path string) ([]string, error) {
	if !cfg.Triplet.IsNativeWasm() || filepath.Ext(path) != ".wasm" {
		return nil, nil
	}

	loaderPath := strings.TrimSuffix(path, ".wasm") + ".js"
	loader := Loader(filepath.Base(path))

	if err := os.WriteFile(loaderPath, []byte(loader), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write loader for %s: %w", filepath.Base(path), err)
	}

	return []string{loaderPath}, nil
}

// Loader renders the JavaScript loader for a WebAssembly binary. The
// loader expects the binary co-located with itself, runs main, and
// reports completion through __cargo_web_done when a harness page
// defines it.
func Loader(wasmName string) string {
	return fmt.Sprintf(`// Autogenerated by cargo-web; do not edit.
(function() {
    "use strict";

    function finish( code ) {
        if( typeof __cargo_web_done === "function" ) {
            __cargo_web_done( code );
        } else if( typeof process === "object" && typeof process.exit === "function" ) {
            process.exit( code );
        }
    }

    function run( instance ) {
        try {
            instance.exports.main();
            finish( 0 );
        } catch( error ) {
            console.error( error );
            finish( 101 );
        }
    }

    if( typeof process === "object" && typeof require === "function" ) {
        var fs = require( "fs" );
        var path = require( "path" );
        var bytes = fs.readFileSync( path.join( __dirname, %[1]q ) );
        WebAssembly.instantiate( bytes, {} ).then( function( result ) {
            run( result.instance );
        }, function( error ) {
            console.error( error );
            finish( 101 );
        });
    } else {
        fetch( %[1]q ).then( function( response ) {
            return response.arrayBuffer();
        }).then( function( bytes ) {
            return WebAssembly.instantiate( bytes, {} );
        }).then( function( result ) {
            run( result.instance );
        }, function( error ) {
            console.error( error );
            finish( 101 );
        });
    }
})();
`, wasmName)
}
