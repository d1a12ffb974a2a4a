package cli

// errors.go defines the error taxonomy shared by the configuration
// builder and the test dispatcher.

import "fmt"

// ConfigurationError is a user-correctable mistake: an unknown package
// or target name, an unsupported flag combination, a missing external
// tool. It surfaces as a diagnostic plus exit status 101.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func configurationErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// BuildError is opaque: the toolchain has already reported the
// actionable detail to the user, so nothing is re-derived here.
type BuildError struct{}

func (e *BuildError) Error() string {
	return "build failed"
}

// fatalError marks conditions too unsafe to continue past. The process
// terminates with exit status 101 before any toolchain invocation.
type fatalError struct {
	Message string
}

func (e *fatalError) Error() string {
	return e.Message
}
