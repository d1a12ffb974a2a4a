package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	cargocmd "github.com/ootoovak/cargo-web/cli/cargo"
	"github.com/ootoovak/cargo-web/cli/chromium"
	"github.com/ootoovak/cargo-web/model"
	"github.com/ootoovak/cargo-web/webconfig"
)

const AppName = "cargo-web"

type App struct {
	logger zerolog.Logger
	cli    *cli.App

	// Project metadata provider, swappable in tests
	metadata func() (*model.Project, error)
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger:   logger,
		metadata: cargocmd.Metadata,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Build and test Rust projects for the client side of the Web",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "build",
		Usage:  "Compile the selected targets for a Web triplet",
		Action: app.commandBuild,
		Flags:  sharedBuildFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "test",
		Usage:     "Compile the test targets and run them in a browser or under node.js",
		ArgsUsage: "[-- passthrough args...]",
		Action:    app.commandTest,
		Flags: append(sharedBuildFlags(),
			&cli.BoolFlag{
				Name:  "nodejs",
				Usage: "Run the tests under node.js instead of a headless browser",
			},
			&cli.BoolFlag{
				Name:  "no-run",
				Usage: "Compile the tests, but don't run them",
			},
		),
	})
	return app
}

// sharedBuildFlags defines the selection, triplet, feature and output
// flags common to the build and test commands.
func sharedBuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "package",
			Aliases: []string{"p"},
			Usage:   "Package to build",
		},
		&cli.BoolFlag{
			Name:  "lib",
			Usage: "Build only this package's library",
		},
		&cli.StringFlag{
			Name:  "bin",
			Usage: "Build only the specified binary",
		},
		&cli.StringFlag{
			Name:  "example",
			Usage: "Build only the specified example",
		},
		&cli.StringFlag{
			Name:  "bench",
			Usage: "Build only the specified benchmark target",
		},
		&cli.BoolFlag{
			Name:  "target-webasm",
			Usage: "Target native WebAssembly (wasm32-unknown-unknown)",
		},
		&cli.BoolFlag{
			Name:  "target-webasm-emscripten",
			Usage: "Target WebAssembly through Emscripten (wasm32-unknown-emscripten)",
		},
		&cli.StringFlag{
			Name:  "features",
			Usage: "Space-separated list of features to also build",
		},
		&cli.BoolFlag{
			Name:  "no-default-features",
			Usage: "Do not build the `default` feature",
		},
		&cli.BoolFlag{
			Name:  "all-features",
			Usage: "Build all available features",
		},
		&cli.BoolFlag{
			Name:  "release",
			Usage: "Build artifacts in release mode, with optimizations",
		},
		&cli.BoolFlag{
			Name:  "use-system-emscripten",
			Usage: "Prefer a system-wide Emscripten installation",
		},
		&cli.StringFlag{
			Name:  "message-format",
			Usage: "Error format: human|json",
			Value: "human",
		},
	}
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func (a *App) commandBuild(ctx *cli.Context) error {
	return exitFor(a.runBuild(ctx))
}

func (a *App) commandTest(ctx *cli.Context) error {
	return exitFor(a.runTest(ctx))
}

// exitFor maps the error taxonomy onto process exit codes: every
// unrecoverable configuration error, fatal condition and failed build
// exits with status 101.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(cli.ExitCoder); ok {
		return err
	}

	var configErr *ConfigurationError
	var buildErr *BuildError
	var fatal *fatalError
	if errors.As(err, &configErr) || errors.As(err, &buildErr) || errors.As(err, &fatal) {
		return cli.Exit(fmt.Sprintf("error: %s", err), 101)
	}
	return err
}

func (a *App) runBuild(ctx *cli.Context) error {
	matcher, pkg, webConfig, err := a.resolveInvocation(ctx)
	if err != nil {
		return err
	}

	targets, err := matcher.selectTargets(pkg, func(target model.Target) bool {
		return target.Kind == model.TargetKindLib || target.Kind == model.TargetKindBin
	})
	if err != nil {
		return err
	}

	for _, target := range targets {
		builder, err := matcher.prepareBuilder(webConfig, pkg, target, model.ProfileMain)
		if err != nil {
			return err
		}
		if _, err := builder.Run(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runTest(ctx *cli.Context) error {
	matcher, pkg, webConfig, err := a.resolveInvocation(ctx)
	if err != nil {
		return err
	}

	dispatcher := &testDispatcher{
		logger:      a.logger,
		matcher:     matcher,
		pkg:         pkg,
		noRun:       ctx.Bool("no-run"),
		useNodejs:   ctx.Bool("nodejs"),
		passthrough: removeFirstDashDash(ctx.Args().Slice()),
		buildTarget: func(target model.Target) (*model.BuildConfig, model.BuildResult, error) {
			builder, err := matcher.prepareBuilder(webConfig, pkg, target, model.ProfileTest)
			if err != nil {
				return nil, model.BuildResult{}, err
			}
			result, err := builder.Run()
			if err != nil {
				return nil, model.BuildResult{}, err
			}
			return builder.Config(), result, nil
		},
		runNode:    classifyRunnerErrors(newNodeRunner(a.logger).Run),
		runBrowser: classifyRunnerErrors(chromium.New(a.logger).Run),
	}
	return dispatcher.run()
}

// resolveInvocation performs the selection steps shared by build and
// test: load the project metadata, validate the flags, pick the
// package and read its Web.yaml.
func (a *App) resolveInvocation(ctx *cli.Context) (*BuildArgsMatcher, *model.Package, *webconfig.Config, error) {
	project, err := a.metadata()
	if err != nil {
		return nil, nil, nil, err
	}

	matcher, err := newBuildArgsMatcher(a.logger, buildFlagsFromContext(ctx), project)
	if err != nil {
		return nil, nil, nil, err
	}

	pkg, err := matcher.selectPackage()
	if err != nil {
		return nil, nil, nil, err
	}

	webConfig, err := webconfig.LoadForPackage(pkg.Dir)
	if err != nil {
		return nil, nil, nil, err
	}

	return matcher, pkg, webConfig, nil
}

// removeFirstDashDash drops a leading "--" separator from the
// passthrough arguments, leaving any later occurrence intact.
func removeFirstDashDash(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}
