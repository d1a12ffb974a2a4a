package model

// TargetKind classifies a compilation target within a package.
type TargetKind uint8

const (
	TargetKindLib TargetKind = iota
	TargetKindBin
	TargetKindExample
	TargetKindBench
	TargetKindTest
)

func (k TargetKind) String() string {
	switch k {
	case TargetKindLib:
		return "lib"
	case TargetKindBin:
		return "bin"
	case TargetKindExample:
		return "example"
	case TargetKindBench:
		return "bench"
	case TargetKindTest:
		return "test"
	}
	return "unknown"
}

// Target is a single compilation target of a package.
// Within a package, (Kind, Name) is unique for named kinds.
type Target struct {
	Kind TargetKind `json:"kind"`
	Name string     `json:"name"`
}

// Package is one member of a project workspace.
type Package struct {
	// Package name as declared in its manifest
	Name string `json:"name"`
	// Directory containing the package manifest
	Dir string `json:"dir"`
	// Compilation targets, in manifest order
	Targets []Target `json:"targets"`
}

// Project is the read-only workspace metadata, externally supplied.
type Project struct {
	// Workspace members, in metadata order
	Packages []Package `json:"packages"`
	// Name of the workspace's designated default member
	DefaultPackageName string `json:"default_package"`
}

// PackageByName returns the package with the given name, if any.
func (p *Project) PackageByName(name string) (*Package, bool) {
	for i := range p.Packages {
		if p.Packages[i].Name == name {
			return &p.Packages[i], true
		}
	}
	return nil, false
}

// DefaultPackage returns the workspace's default member. It falls back
// to the first package when the metadata did not mark a default.
func (p *Project) DefaultPackage() *Package {
	if pkg, ok := p.PackageByName(p.DefaultPackageName); ok {
		return pkg
	}
	return &p.Packages[0]
}
