package model

import "path/filepath"

// BuildType selects the optimization profile of a build.
type BuildType uint8

const (
	BuildTypeDebug BuildType = iota
	BuildTypeRelease
)

func (t BuildType) String() string {
	if t == BuildTypeRelease {
		return "release"
	}
	return "debug"
}

// Profile selects whether runtime-exit semantics are linked in.
// Test artifacts need process-exit semantics; production artifacts
// are smaller and faster without them.
type Profile uint8

const (
	ProfileMain Profile = iota
	ProfileTest
)

// MessageFormat selects how toolchain diagnostics are presented.
type MessageFormat uint8

const (
	MessageFormatHuman MessageFormat = iota
	MessageFormatJson
)

func (f MessageFormat) String() string {
	if f == MessageFormatJson {
		return "json"
	}
	return "human"
}

// EnvVar is one environment variable pair exported to the toolchain.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BuildTarget names the single target a configuration builds.
type BuildTarget struct {
	Kind TargetKind `json:"kind"`
	Name string     `json:"name"`
}

// BuildConfig is one canonical, internally consistent build
// configuration. It is created fresh per (target, profile) pair,
// never mutated after construction, and consumed exactly once.
type BuildConfig struct {
	BuildTarget       BuildTarget   `json:"build_target"`
	BuildType         BuildType     `json:"build_type"`
	Triplet           Triplet       `json:"triplet"`
	Package           string        `json:"package"`
	Features          []string      `json:"features,omitempty"`
	NoDefaultFeatures bool          `json:"no_default_features,omitempty"`
	AllFeatures       bool          `json:"all_features,omitempty"`
	ExtraPaths        []string      `json:"extra_paths,omitempty"`
	ExtraRustflags    []string      `json:"extra_rustflags,omitempty"`
	ExtraEnv          []EnvVar      `json:"extra_env,omitempty"`
	MessageFormat     MessageFormat `json:"message_format"`
	Verbose           bool          `json:"verbose,omitempty"`
}

// BuildResult lists the artifacts produced by one successful build.
// It is ephemeral: consumed immediately by the test dispatcher and
// never persisted.
type BuildResult struct {
	Artifacts []string `json:"artifacts"`
	Success   bool     `json:"success"`
}

// ArtifactByExt returns the first artifact with the given file
// extension (including the leading dot), in production order.
func (r BuildResult) ArtifactByExt(ext string) (string, bool) {
	for _, artifact := range r.Artifacts {
		if filepath.Ext(artifact) == ext {
			return artifact, true
		}
	}
	return "", false
}
