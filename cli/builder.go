package cli

// builder.go composes the canonical build configuration for one
// (target, profile) pair and drives the toolchain with it.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	cargocmd "github.com/ootoovak/cargo-web/cli/cargo"
	"github.com/ootoovak/cargo-web/cli/wasm"
	"github.com/ootoovak/cargo-web/model"
	"github.com/ootoovak/cargo-web/webconfig"
)

func lookupOSEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// prepareBuilder builds the full configuration for one target:
// triplet, effective build type, toolchain environment and the
// project-declared linker arguments.
func (m *BuildArgsMatcher) prepareBuilder(config *webconfig.Config, pkg *model.Package, target model.Target, profile model.Profile) (*Builder, error) {
	messageFormat, err := m.messageFormat()
	if err != nil {
		return nil, err
	}

	var extraPaths []string
	var extraRustflags []string
	var extraEnv []model.EnvVar

	if m.triplet.IsEmscripten() {
		if toolchain := m.provision(m.flags.UseSystemEmscripten, m.triplet.IsWasm()); toolchain != nil {
			extraPaths = append(extraPaths, toolchain.EmscriptenPath)
			extraEnv = append(extraEnv,
				model.EnvVar{Name: "EMSCRIPTEN", Value: toolchain.EmscriptenPath},
				model.EnvVar{Name: "EMSCRIPTEN_FASTCOMP", Value: toolchain.LLVMPath},
				model.EnvVar{Name: "LLVM", Value: toolchain.LLVMPath},
			)
			if toolchain.BinaryenPath != "" {
				extraEnv = append(extraEnv, model.EnvVar{Name: "BINARYEN", Value: toolchain.BinaryenPath})
			}
		}

		// Tests need the exit runtime for process-exit semantics; Web
		// artifacts are smaller and faster without it.
		exitRuntime := 0
		if profile == model.ProfileMain {
			exitRuntime = 1
		}
		extraRustflags = append(extraRustflags,
			"-C", "link-arg=-s",
			"-C", fmt.Sprintf("link-arg=NO_EXIT_RUNTIME=%d", exitRuntime),
		)
	}

	for _, arg := range config.LinkArgs {
		if strings.ContainsFunc(arg, unicode.IsSpace) {
			// `-C link-arg="{}"` cannot quote embedded spaces, and
			// silently mangling the argument would be worse than
			// failing loudly.
			return nil, &fatalError{Message: fmt.Sprintf(
				"you have a space in one of the entries in `link-args` in your `%s`; this is currently unsupported - aborting!",
				webconfig.FileName,
			)}
		}
		extraRustflags = append(extraRustflags, "-C", "link-arg="+arg)
	}

	if m.triplet.IsNativeWasm() && m.requestedBuildType() == model.BuildTypeDebug {
		extraRustflags = append(extraRustflags, "-C", "debuginfo=2")
	}

	if m.triplet.IsNativeWasm() {
		// Incremental compilation doesn't work very well with this
		// target, so disable it.
		if _, ok := m.lookupEnv("CARGO_INCREMENTAL"); ok {
			extraEnv = append(extraEnv, model.EnvVar{Name: "CARGO_INCREMENTAL", Value: "0"})
		}
	}

	return &Builder{
		logger: m.logger,
		config: &model.BuildConfig{
			BuildTarget:       model.BuildTarget{Kind: target.Kind, Name: target.Name},
			BuildType:         m.buildType(),
			Triplet:           m.triplet,
			Package:           pkg.Name,
			Features:          m.features(),
			NoDefaultFeatures: m.flags.NoDefaultFeatures,
			AllFeatures:       m.flags.AllFeatures,
			ExtraPaths:        extraPaths,
			ExtraRustflags:    extraRustflags,
			ExtraEnv:          extraEnv,
			MessageFormat:     messageFormat,
			Verbose:           m.flags.Verbose,
		},
		profile:     profile,
		runBuild:    cargocmd.Build,
		postprocess: wasm.ProcessWasmFile,
	}, nil
}

// Builder invokes the toolchain with one immutable configuration.
type Builder struct {
	logger  zerolog.Logger
	config  *model.BuildConfig
	profile model.Profile

	runBuild    func(zerolog.Logger, *model.BuildConfig, model.Profile) (model.BuildResult, error)
	postprocess func(*model.BuildConfig, string) ([]string, error)
}

// Config exposes the composed configuration for the dispatcher.
func (b *Builder) Config() *model.BuildConfig {
	return b.config
}

// Run invokes the toolchain. On success every produced native binary
// is handed to the artifact post-processor and any derived artifacts
// are merged into the result. On failure the error is opaque: the
// toolchain has already reported the detail.
func (b *Builder) Run() (model.BuildResult, error) {
	b.logger.Info().
		Str("target", b.config.BuildTarget.Name).
		Str("kind", b.config.BuildTarget.Kind.String()).
		Str("triplet", b.config.Triplet.String()).
		Str("build_type", b.config.BuildType.String()).
		Msg("Building target")

	result, err := b.runBuild(b.logger, b.config, b.profile)
	if err != nil {
		b.logger.Debug().Err(err).Msg("Toolchain invocation failed")
		return model.BuildResult{}, &BuildError{}
	}

	for _, artifact := range append([]string(nil), result.Artifacts...) {
		derived, err := b.postprocess(b.config, artifact)
		if err != nil {
			return model.BuildResult{}, fmt.Errorf("failed to post-process %s: %w", filepath.Base(artifact), err)
		}
		result.Artifacts = append(result.Artifacts, derived...)
	}

	result.Success = true
	return result, nil
}
