package cli

// matcher.go turns the partially-overlapping build flags into
// unambiguous selections: which package, which targets, which triplet
// and which build type.

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ootoovak/cargo-web/cli/emscripten"
	"github.com/ootoovak/cargo-web/model"
)

// buildFlags is the raw flag state shared by the build and test
// commands.
type buildFlags struct {
	Package                string
	Lib                    bool
	Bin                    string
	Example                string
	Bench                  string
	TargetWebasm           bool
	TargetWebasmEmscripten bool
	Features               string
	NoDefaultFeatures      bool
	AllFeatures            bool
	Release                bool
	UseSystemEmscripten    bool
	MessageFormat          string
	Verbose                bool
}

func buildFlagsFromContext(ctx *cli.Context) buildFlags {
	return buildFlags{
		Package:                ctx.String("package"),
		Lib:                    ctx.Bool("lib"),
		Bin:                    ctx.String("bin"),
		Example:                ctx.String("example"),
		Bench:                  ctx.String("bench"),
		TargetWebasm:           ctx.Bool("target-webasm"),
		TargetWebasmEmscripten: ctx.Bool("target-webasm-emscripten"),
		Features:               ctx.String("features"),
		NoDefaultFeatures:      ctx.Bool("no-default-features"),
		AllFeatures:            ctx.Bool("all-features"),
		Release:                ctx.Bool("release"),
		UseSystemEmscripten:    ctx.Bool("use-system-emscripten"),
		MessageFormat:          ctx.String("message-format"),
		Verbose:                ctx.Bool("verbose"),
	}
}

// BuildArgsMatcher resolves flags against the project metadata.
// The triplet is validated at construction so contradictory flag sets
// are rejected before anything else happens.
type BuildArgsMatcher struct {
	logger  zerolog.Logger
	flags   buildFlags
	project *model.Project
	triplet model.Triplet

	provision func(useSystem, wasm bool) *emscripten.Toolchain
	lookupEnv func(string) (string, bool)
}

func newBuildArgsMatcher(logger zerolog.Logger, flags buildFlags, project *model.Project) (*BuildArgsMatcher, error) {
	triplet, err := resolveTriplet(flags)
	if err != nil {
		return nil, err
	}

	return &BuildArgsMatcher{
		logger:  logger,
		flags:   flags,
		project: project,
		triplet: triplet,
		provision: func(useSystem, wasm bool) *emscripten.Toolchain {
			return emscripten.Provision(logger, useSystem, wasm)
		},
		lookupEnv: lookupOSEnv,
	}, nil
}

// resolveTriplet maps the target flags onto exactly one triplet.
// Contradictory flag sets are rejected rather than silently resolved
// by precedence.
func resolveTriplet(flags buildFlags) (model.Triplet, error) {
	switch {
	case flags.TargetWebasm && flags.TargetWebasmEmscripten:
		return 0, configurationErrorf("`--target-webasm` and `--target-webasm-emscripten` are mutually exclusive; pass at most one")
	case flags.TargetWebasm:
		return model.TripletWasmUnknown, nil
	case flags.TargetWebasmEmscripten:
		return model.TripletWasmEmscripten, nil
	default:
		return model.TripletAsmjsEmscripten, nil
	}
}

func (m *BuildArgsMatcher) requestedBuildType() model.BuildType {
	if m.flags.Release {
		return model.BuildTypeRelease
	}
	return model.BuildTypeDebug
}

// buildType returns the effective build type. Debug builds on the
// native WebAssembly target are known broken, so they are forced to
// Release with a warning; requesting Release is never changed.
func (m *BuildArgsMatcher) buildType() model.BuildType {
	buildType := m.requestedBuildType()
	if m.triplet.IsNativeWasm() && buildType == model.BuildTypeDebug {
		// TODO: Remove this once debug builds work on wasm32-unknown-unknown.
		m.logger.Warn().Msg("debug builds on the wasm32-unknown-unknown target are currently totally broken")
		m.logger.Warn().Msg("forcing a release build")
		return model.BuildTypeRelease
	}
	return buildType
}

func (m *BuildArgsMatcher) messageFormat() (model.MessageFormat, error) {
	switch m.flags.MessageFormat {
	case "", "human":
		return model.MessageFormatHuman, nil
	case "json":
		return model.MessageFormatJson, nil
	default:
		return 0, configurationErrorf("invalid message format `%s`; expected `human` or `json`", m.flags.MessageFormat)
	}
}

func (m *BuildArgsMatcher) features() []string {
	return strings.Fields(m.flags.Features)
}

// selectPackage returns the explicitly named package, or the project's
// default package when no name was given. An unknown name is an error,
// never a silent fallback.
func (m *BuildArgsMatcher) selectPackage() (*model.Package, error) {
	if m.flags.Package == "" {
		return m.project.DefaultPackage(), nil
	}
	pkg, ok := m.project.PackageByName(m.flags.Package)
	if !ok {
		return nil, configurationErrorf("package `%s` not found", m.flags.Package)
	}
	return pkg, nil
}

// explicitTarget resolves the explicit target selectors. At most one
// of --lib, --bin, --example and --bench may be supplied; supplying
// several is rejected eagerly instead of silently preferring one.
func (m *BuildArgsMatcher) explicitTarget(pkg *model.Package) (*model.Target, error) {
	var supplied []string
	if m.flags.Lib {
		supplied = append(supplied, "--lib")
	}
	if m.flags.Bin != "" {
		supplied = append(supplied, "--bin")
	}
	if m.flags.Example != "" {
		supplied = append(supplied, "--example")
	}
	if m.flags.Bench != "" {
		supplied = append(supplied, "--bench")
	}
	if len(supplied) > 1 {
		return nil, configurationErrorf("conflicting target selectors %s; pass at most one", strings.Join(supplied, ", "))
	}

	switch {
	case m.flags.Lib:
		if target := findTarget(pkg, model.TargetKindLib, ""); target != nil {
			return target, nil
		}
		return nil, configurationErrorf("no library targets found")
	case m.flags.Bin != "":
		if target := findTarget(pkg, model.TargetKindBin, m.flags.Bin); target != nil {
			return target, nil
		}
		return nil, configurationErrorf("no bin target named `%s`", m.flags.Bin)
	case m.flags.Example != "":
		if target := findTarget(pkg, model.TargetKindExample, m.flags.Example); target != nil {
			return target, nil
		}
		return nil, configurationErrorf("no example target named `%s`", m.flags.Example)
	case m.flags.Bench != "":
		if target := findTarget(pkg, model.TargetKindBench, m.flags.Bench); target != nil {
			return target, nil
		}
		return nil, configurationErrorf("no bench target named `%s`", m.flags.Bench)
	}
	return nil, nil
}

// selectTargets returns the explicitly selected target, or every
// target matching the filter when no selector was supplied. The
// filtered set may legitimately be empty.
func (m *BuildArgsMatcher) selectTargets(pkg *model.Package, filter func(model.Target) bool) ([]model.Target, error) {
	explicit, err := m.explicitTarget(pkg)
	if err != nil {
		return nil, err
	}
	if explicit != nil {
		return []model.Target{*explicit}, nil
	}

	var targets []model.Target
	for _, target := range pkg.Targets {
		if filter(target) {
			targets = append(targets, target)
		}
	}
	return targets, nil
}

func findTarget(pkg *model.Package, kind model.TargetKind, name string) *model.Target {
	for i := range pkg.Targets {
		target := &pkg.Targets[i]
		if target.Kind != kind {
			continue
		}
		if name == "" || target.Name == name {
			return target
		}
	}
	return nil
}
