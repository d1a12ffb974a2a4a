package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ootoovak/cargo-web/model"
)

func newTestDispatcher(t *testing.T, flags buildFlags) *testDispatcher {
	t.Helper()
	matcher := newTestMatcher(t, flags)
	pkg, err := matcher.selectPackage()
	if err != nil {
		t.Fatalf("selectPackage() error = %v", err)
	}

	return &testDispatcher{
		logger:  zerolog.Nop(),
		matcher: matcher,
		pkg:     pkg,
		buildTarget: func(target model.Target) (*model.BuildConfig, model.BuildResult, error) {
			return &model.BuildConfig{
					BuildTarget: model.BuildTarget{Kind: target.Kind, Name: target.Name},
					Triplet:     matcher.triplet,
				}, model.BuildResult{
					Artifacts: []string{"/out/" + target.Name + ".js"},
					Success:   true,
				}, nil
		},
		runNode: func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
			t.Fatal("unexpected node.js run")
			return false, nil
		},
		runBrowser: func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
			t.Fatal("unexpected browser run")
			return false, nil
		},
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("error = %v, want an ExitCoder", err)
	}
	return coder.ExitCode()
}

func TestDispatcherResolvesOnlyTestableKinds(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})

	var built []model.Target
	dispatcher.buildTarget = func(target model.Target) (*model.BuildConfig, model.BuildResult, error) {
		built = append(built, target)
		return &model.BuildConfig{}, model.BuildResult{}, nil
	}
	dispatcher.noRun = true

	if err := dispatcher.run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	// The test project has lib, bin, example, bench and test targets;
	// examples and benches never run as tests.
	want := []model.TargetKind{model.TargetKindLib, model.TargetKindBin, model.TargetKindTest}
	if len(built) != len(want) {
		t.Fatalf("built %d targets, want %d", len(built), len(want))
	}
	for i, target := range built {
		if target.Kind != want[i] {
			t.Errorf("built[%d].Kind = %v, want %v", i, target.Kind, want[i])
		}
	}
}

func TestDispatcherBuildsFailFast(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})

	var built int
	dispatcher.buildTarget = func(target model.Target) (*model.BuildConfig, model.BuildResult, error) {
		built++
		if built == 2 {
			return nil, model.BuildResult{}, &BuildError{}
		}
		return &model.BuildConfig{}, model.BuildResult{}, nil
	}

	err := dispatcher.run()
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("run() error = %v, want BuildError", err)
	}
	if built != 2 {
		t.Errorf("built = %d targets, want 2 (later targets must never build)", built)
	}
}

func TestDispatcherNoRunExitsCleanly(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})
	dispatcher.noRun = true

	// Both runners would t.Fatal if invoked.
	if err := dispatcher.run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestDispatcherNativeWasmRequiresNodejs(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{TargetWebasm: true})

	err := dispatcher.run()
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("run() error = %v, want ConfigurationError", err)
	}
}

func TestDispatcherAggregatesFailures(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})
	dispatcher.useNodejs = true

	var runs int
	dispatcher.runNode = func(cfg *model.BuildConfig, build model.BuildResult, passthrough []string) (bool, error) {
		runs++
		return runs != 2, nil // only the second target fails
	}

	err := dispatcher.run()
	if got := exitCode(t, err); got != 101 {
		t.Errorf("exit code = %d, want 101", got)
	}
	if runs != 3 {
		t.Errorf("runs = %d, want 3 (a test failure must not abort later runs)", runs)
	}
}

func TestDispatcherAllPassing(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})
	dispatcher.useNodejs = true
	dispatcher.runNode = func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
		return true, nil
	}

	if err := dispatcher.run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestDispatcherRunErrorAborts(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})
	dispatcher.useNodejs = true

	var runs int
	dispatcher.runNode = func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
		runs++
		return false, configurationErrorf("node.js not found; please install it!")
	}

	err := dispatcher.run()
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("run() error = %v, want ConfigurationError", err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestDispatcherMissingBrowserExits101(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})
	dispatcher.runBrowser = classifyRunnerErrors(func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
		return false, fmt.Errorf("chromium not found; please install it, or pass `--nodejs` to run the tests under node.js")
	})

	err := dispatcher.run()
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("run() error = %v, want ConfigurationError", err)
	}
	if got := exitCode(t, exitFor(err)); got != 101 {
		t.Errorf("exit code = %d, want 101", got)
	}
}

func TestClassifyRunnerErrors(t *testing.T) {
	t.Run("plain errors become configuration errors", func(t *testing.T) {
		run := classifyRunnerErrors(func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
			return false, fmt.Errorf("failed to run headless browser: exec: not found")
		})
		_, err := run(nil, model.BuildResult{}, nil)
		var configErr *ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("error = %v, want ConfigurationError", err)
		}
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		want := configurationErrorf("node.js not found; please install it!")
		run := classifyRunnerErrors(func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
			return false, want
		})
		_, err := run(nil, model.BuildResult{}, nil)
		if err != error(want) {
			t.Errorf("error = %v, want the original %v", err, want)
		}
	})

	t.Run("outcomes pass through unwrapped", func(t *testing.T) {
		run := classifyRunnerErrors(func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
			return true, nil
		})
		passed, err := run(nil, model.BuildResult{}, nil)
		if err != nil || !passed {
			t.Errorf("run() = (%v, %v), want (true, nil)", passed, err)
		}
	})
}

func TestDispatcherUsesBrowserByDefault(t *testing.T) {
	dispatcher := newTestDispatcher(t, buildFlags{})

	var browserRuns int
	dispatcher.runBrowser = func(*model.BuildConfig, model.BuildResult, []string) (bool, error) {
		browserRuns++
		return true, nil
	}

	if err := dispatcher.run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if browserRuns != 3 {
		t.Errorf("browser runs = %d, want 3", browserRuns)
	}
}

func TestRemoveFirstDashDash(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty", in: []string{}, want: []string{}},
		{name: "leading separator dropped", in: []string{"--", "--nocapture"}, want: []string{"--nocapture"}},
		{name: "no separator", in: []string{"--nocapture"}, want: []string{"--nocapture"}},
		{name: "later separator kept", in: []string{"--nocapture", "--", "x"}, want: []string{"--nocapture", "--", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removeFirstDashDash(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("removeFirstDashDash() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("removeFirstDashDash() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
