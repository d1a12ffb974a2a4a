package cli

// dispatcher.go orchestrates the test command as an explicit phase
// machine: resolve targets, build them all (fail-fast), pick one
// runtime for the whole invocation, run every built target
// (continue-on-failure) and OR-aggregate the outcomes.

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ootoovak/cargo-web/model"
)

type testPhase uint8

const (
	phaseResolvingTargets testPhase = iota
	phaseBuilding
	phaseNoRunExit
	phaseSelectingRuntime
	phaseRunning
	phaseAggregating
	phaseDone
)

func (p testPhase) String() string {
	switch p {
	case phaseResolvingTargets:
		return "resolving-targets"
	case phaseBuilding:
		return "building"
	case phaseNoRunExit:
		return "no-run-exit"
	case phaseSelectingRuntime:
		return "selecting-runtime"
	case phaseRunning:
		return "running"
	case phaseAggregating:
		return "aggregating"
	case phaseDone:
		return "done"
	}
	return "unknown"
}

// targetBuild pairs a build result with the configuration that
// produced it, for the run phase.
type targetBuild struct {
	config *model.BuildConfig
	result model.BuildResult
}

// runFunc executes one built target and reports the test outcome.
// An error means the run could not be attempted.
type runFunc func(cfg *model.BuildConfig, build model.BuildResult, passthrough []string) (bool, error)

// classifyRunnerErrors wraps a runner so its plain errors surface as
// configuration errors. Runner errors are environmental (a missing
// executable, a failed launch), never test failures.
func classifyRunnerErrors(run runFunc) runFunc {
	return func(cfg *model.BuildConfig, build model.BuildResult, passthrough []string) (bool, error) {
		passed, err := run(cfg, build, passthrough)
		if err != nil {
			var configErr *ConfigurationError
			if !errors.As(err, &configErr) {
				err = configurationErrorf("%s", err)
			}
		}
		return passed, err
	}
}

type testDispatcher struct {
	logger      zerolog.Logger
	matcher     *BuildArgsMatcher
	pkg         *model.Package
	noRun       bool
	useNodejs   bool
	passthrough []string

	buildTarget func(target model.Target) (*model.BuildConfig, model.BuildResult, error)
	runNode     runFunc
	runBrowser  runFunc

	targets    []model.Target
	builds     []targetBuild
	outcomes   []bool
	runTarget  runFunc
	anyFailure bool
	stopped    bool
}

// run drives the phase machine to completion and maps the aggregate
// outcome onto the process exit status.
func (d *testDispatcher) run() error {
	for phase := phaseResolvingTargets; phase != phaseDone; {
		next, err := d.step(phase)
		if err != nil {
			return err
		}
		d.logger.Debug().
			Stringer("from", phase).
			Stringer("to", next).
			Msg("Dispatcher phase transition")
		phase = next
	}

	if d.anyFailure {
		return cli.Exit("error: one or more tests failed", 101)
	}

	if !d.stopped && d.useNodejs && d.matcher.triplet.IsNativeWasm() {
		// This runtime path produces no per-test output on success.
		d.logger.Info().Msg("All tests passed!")
	}
	return nil
}

// step executes one phase and returns the next. Builds fail fast;
// test runs continue across failures and only aggregation decides the
// overall outcome.
func (d *testDispatcher) step(phase testPhase) (testPhase, error) {
	switch phase {
	case phaseResolvingTargets:
		// Examples and benches never run as tests.
		targets, err := d.matcher.selectTargets(d.pkg, func(target model.Target) bool {
			return target.Kind == model.TargetKindLib ||
				target.Kind == model.TargetKindBin ||
				target.Kind == model.TargetKindTest
		})
		if err != nil {
			return phaseDone, err
		}
		d.targets = targets
		return phaseBuilding, nil

	case phaseBuilding:
		for _, target := range d.targets {
			config, result, err := d.buildTarget(target)
			if err != nil {
				// Fail fast: remaining targets are never built.
				return phaseDone, err
			}
			d.builds = append(d.builds, targetBuild{config: config, result: result})
		}
		return phaseNoRunExit, nil

	case phaseNoRunExit:
		if d.noRun {
			d.stopped = true
			return phaseDone, nil
		}
		return phaseSelectingRuntime, nil

	case phaseSelectingRuntime:
		// One binary choice for the whole invocation.
		if d.matcher.triplet.IsNativeWasm() && !d.useNodejs {
			return phaseDone, configurationErrorf("running tests for the native wasm target is currently only supported with `--nodejs`")
		}
		if d.useNodejs {
			d.runTarget = d.runNode
		} else {
			d.runTarget = d.runBrowser
		}
		return phaseRunning, nil

	case phaseRunning:
		for _, build := range d.builds {
			passed, err := d.runTarget(build.config, build.result, d.passthrough)
			if err != nil {
				return phaseDone, err
			}
			d.outcomes = append(d.outcomes, passed)
		}
		return phaseAggregating, nil

	case phaseAggregating:
		// A later pass never clears a prior failure.
		for _, passed := range d.outcomes {
			d.anyFailure = d.anyFailure || !passed
		}
		return phaseDone, nil
	}

	panic("internal error: dispatcher stepped on phase " + phase.String())
}
