package cargocmd

// metadata.go maps `cargo metadata` output onto the project model.

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ootoovak/cargo-web/model"
)

// Metadata runs `cargo metadata` for the project in the current
// directory and returns the read-only workspace model.
// If an error occurs, it includes a user-friendly error message.
func Metadata() (*model.Project, error) {
	cmd := Command("metadata", "--no-deps", "--format-version", "1")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())

		if strings.Contains(errMsg, "could not find `Cargo.toml`") {
			return nil, fmt.Errorf("not a cargo project: no Cargo.toml found in this directory or any parent")
		}

		lines := strings.Split(errMsg, "\n")
		if len(lines) > 0 && lines[0] != "" {
			return nil, fmt.Errorf("failed to read project metadata: %s", strings.TrimPrefix(lines[0], "error: "))
		}
		return nil, fmt.Errorf("failed to read project metadata: %w", err)
	}

	project, err := ParseMetadata([]byte(stdout.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse project metadata: %w", err)
	}
	return project, nil
}

type metadataPackage struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ManifestPath string           `json:"manifest_path"`
	Targets      []metadataTarget `json:"targets"`
}

type metadataTarget struct {
	Kind []string `json:"kind"`
	Name string   `json:"name"`
}

type metadataOutput struct {
	Packages                []metadataPackage `json:"packages"`
	WorkspaceMembers        []string          `json:"workspace_members"`
	WorkspaceDefaultMembers []string          `json:"workspace_default_members"`
}

// ParseMetadata decodes `cargo metadata --format-version 1` output.
func ParseMetadata(data []byte) (*model.Project, error) {
	var out metadataOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if len(out.Packages) == 0 {
		return nil, fmt.Errorf("metadata contains no packages")
	}

	byID := make(map[string]string, len(out.Packages))
	project := &model.Project{}
	for _, pkg := range out.Packages {
		byID[pkg.ID] = pkg.Name

		p := model.Package{
			Name: pkg.Name,
			Dir:  filepath.Dir(pkg.ManifestPath),
		}
		for _, target := range pkg.Targets {
			for _, kind := range target.Kind {
				mapped, ok := targetKind(kind)
				if !ok {
					continue
				}
				p.Targets = append(p.Targets, model.Target{Kind: mapped, Name: target.Name})
				break
			}
		}
		project.Packages = append(project.Packages, p)
	}

	// The workspace default member, falling back to the first member.
	defaults := out.WorkspaceDefaultMembers
	if len(defaults) == 0 {
		defaults = out.WorkspaceMembers
	}
	if len(defaults) > 0 {
		project.DefaultPackageName = byID[defaults[0]]
	}

	return project, nil
}

func targetKind(kind string) (model.TargetKind, bool) {
	switch kind {
	case "lib", "rlib", "dylib", "cdylib", "staticlib", "proc-macro":
		return model.TargetKindLib, true
	case "bin":
		return model.TargetKindBin, true
	case "example":
		return model.TargetKindExample, true
	case "bench":
		return model.TargetKindBench, true
	case "test":
		return model.TargetKindTest, true
	}
	return 0, false
}
