// Package webconfig loads the optional per-package Web.yaml file
// carrying project-declared build settings.
package webconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the package root.
const FileName = "Web.yaml"

// Config is the project-declared configuration.
type Config struct {
	// Extra linker arguments passed to every build of the package
	LinkArgs []string `yaml:"link-args"`
}

// Default returns the configuration used when no Web.yaml exists.
func Default() *Config {
	return &Config{}
}

// LoadForPackage reads the Web.yaml next to the package manifest.
// An absent file is not an error and yields the default config.
func LoadForPackage(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}
