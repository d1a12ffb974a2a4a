package cargocmd

// cargo.go provides utilities for executing cargo commands.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/ootoovak/cargo-web/model"
)

// Build invokes cargo with the given configuration and returns the
// produced artifacts. For the test profile the artifacts are compiled
// with `cargo test --no-run`, otherwise with `cargo build`.
//
// On failure the returned error carries no diagnostics: cargo has
// already printed them to stderr.
func Build(logger zerolog.Logger, cfg *model.BuildConfig, profile model.Profile) (model.BuildResult, error) {
	args := BuildArgs(cfg, profile)

	cmd := Command(args...)
	cmd.Env = BuildEnv(os.Environ(), cfg)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	logger.Debug().
		Str("command", shellescape.QuoteCommand(append([]string{"cargo"}, args...))).
		Msg("Invoking cargo")

	err := cmd.Run()

	// When the user asked for machine output, forward cargo's message
	// stream untouched.
	if cfg.MessageFormat == model.MessageFormatJson {
		os.Stdout.Write(stdout.Bytes())
	}

	if err != nil {
		return model.BuildResult{}, fmt.Errorf("cargo %s failed: %w", args[0], err)
	}

	return model.BuildResult{
		Artifacts: ParseMessages(&stdout),
		Success:   true,
	}, nil
}

// BuildArgs maps a build configuration onto a cargo argument list.
func BuildArgs(cfg *model.BuildConfig, profile model.Profile) []string {
	var args []string
	if profile == model.ProfileTest {
		args = []string{"test", "--no-run"}
	} else {
		args = []string{"build"}
	}

	switch cfg.BuildTarget.Kind {
	case model.TargetKindLib:
		args = append(args, "--lib")
	case model.TargetKindBin:
		args = append(args, "--bin", cfg.BuildTarget.Name)
	case model.TargetKindExample:
		args = append(args, "--example", cfg.BuildTarget.Name)
	case model.TargetKindBench:
		args = append(args, "--bench", cfg.BuildTarget.Name)
	case model.TargetKindTest:
		args = append(args, "--test", cfg.BuildTarget.Name)
	}

	args = append(args, "--target", cfg.Triplet.String())
	if cfg.Package != "" {
		args = append(args, "-p", cfg.Package)
	}
	if cfg.BuildType == model.BuildTypeRelease {
		args = append(args, "--release")
	}
	if len(cfg.Features) > 0 {
		args = append(args, "--features", strings.Join(cfg.Features, " "))
	}
	if cfg.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if cfg.AllFeatures {
		args = append(args, "--all-features")
	}
	if cfg.Verbose {
		args = append(args, "--verbose")
	}

	// The artifact list always comes from cargo's JSON message stream;
	// json-render-diagnostics keeps compiler errors human-readable.
	if cfg.MessageFormat == model.MessageFormatJson {
		args = append(args, "--message-format", "json")
	} else {
		args = append(args, "--message-format", "json-render-diagnostics")
	}

	return args
}

// BuildEnv extends a base environment with the configuration's extra
// variables, RUSTFLAGS and search paths. Entries appended later win.
func BuildEnv(base []string, cfg *model.BuildConfig) []string {
	env := make([]string, len(base))
	copy(env, base)

	for _, pair := range cfg.ExtraEnv {
		env = append(env, fmt.Sprintf("%s=%s", pair.Name, pair.Value))
	}

	if len(cfg.ExtraRustflags) > 0 {
		flags := strings.Join(cfg.ExtraRustflags, " ")
		if existing := lookupEnv(base, "RUSTFLAGS"); existing != "" {
			flags = existing + " " + flags
		}
		env = append(env, "RUSTFLAGS="+flags)
	}

	if len(cfg.ExtraPaths) > 0 {
		path := strings.Join(cfg.ExtraPaths, string(os.PathListSeparator))
		if existing := lookupEnv(base, "PATH"); existing != "" {
			path = path + string(os.PathListSeparator) + existing
		}
		env = append(env, "PATH="+path)
	}

	return env
}

func lookupEnv(env []string, name string) string {
	prefix := name + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return strings.TrimPrefix(env[i], prefix)
		}
	}
	return ""
}

type buildMessage struct {
	Reason    string   `json:"reason"`
	Filenames []string `json:"filenames"`
}

// ParseMessages extracts artifact paths from cargo's JSON message
// stream, preserving production order. Lines that are not valid
// messages are ignored.
func ParseMessages(r io.Reader) []string {
	var artifacts []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var msg buildMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if msg.Reason != "compiler-artifact" {
			continue
		}

		for _, name := range msg.Filenames {
			if !seen[name] {
				seen[name] = true
				artifacts = append(artifacts, name)
			}
		}
	}

	return artifacts
}

// Command creates an exec.Cmd for running a cargo command.
func Command(args ...string) *exec.Cmd {
	return exec.Command("cargo", args...)
}
