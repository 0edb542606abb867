// Package formula describes how to fetch, configure, build and install one
// piece of software.
package formula

import (
	"fmt"
	"slices"
	"strings"
)

// -----------------------------------------------------------------------------

// Metadata is the declarative part of a formula. It is fixed at authoring
// time and never changes after loading.
type Metadata struct {
	Name     string `yaml:"name"`
	Desc     string `yaml:"desc"`
	Homepage string `yaml:"homepage"`
	URL      string `yaml:"url"`
	SHA256   string `yaml:"sha256"`
	Head     string `yaml:"head"`
	Version  string `yaml:"version"`
}

// -----------------------------------------------------------------------------

// DepKind tells when a dependency is needed.
type DepKind int

const (
	Runtime DepKind = iota
	Build
	Recommended
)

var depKindNames = [...]string{
	Runtime:     "runtime",
	Build:       "build",
	Recommended: "recommended",
}

func (k DepKind) String() string {
	if k < 0 || int(k) >= len(depKindNames) {
		return fmt.Sprintf("DepKind(%d)", int(k))
	}
	return depKindNames[k]
}

// ParseDepKind converts the textual form used in formula files. An empty
// string means Runtime.
func ParseDepKind(s string) (DepKind, error) {
	if s == "" {
		return Runtime, nil
	}
	for i, name := range depKindNames {
		if name == s {
			return DepKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dependency kind %q", s)
}

// Dependency declares something the formula needs from the host. Features
// carries sub-feature lists, e.g. the interpreter modules of "python" or the
// language bindings of "mpi".
type Dependency struct {
	Name     string
	Kind     DepKind
	Features []string
}

func (d Dependency) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Features) > 0 {
		b.WriteString(" [" + strings.Join(d.Features, ", ") + "]")
	}
	if d.Kind != Runtime {
		b.WriteString(" (" + d.Kind.String() + ")")
	}
	return b.String()
}

// Deps is the set of dependencies of a formula. Order only matters for
// display.
type Deps struct {
	list []Dependency
}

// Add declares a dependency. Declaring the same name and kind twice merges
// the feature lists.
func (p *Deps) Add(dep Dependency) {
	for i := range p.list {
		d := &p.list[i]
		if d.Name != dep.Name || d.Kind != dep.Kind {
			continue
		}
		for _, f := range dep.Features {
			if !slices.Contains(d.Features, f) {
				d.Features = append(d.Features, f)
			}
		}
		return
	}
	dep.Features = slices.Clone(dep.Features)
	p.list = append(p.list, dep)
}

// List returns a copy of the declared dependencies.
func (p *Deps) List() []Dependency {
	out := make([]Dependency, len(p.list))
	for i, d := range p.list {
		d.Features = slices.Clone(d.Features)
		out[i] = d
	}
	return out
}

// Of returns the dependencies of the given kind.
func (p *Deps) Of(kind DepKind) []Dependency {
	var out []Dependency
	for _, d := range p.List() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of distinct dependencies.
func (p *Deps) Len() int {
	return len(p.list)
}

// -----------------------------------------------------------------------------

// Option is a user toggle exposed at install time, off by default.
type Option struct {
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
}

// Flag returns the command-line form, e.g. "with-test".
func (o Option) Flag() string {
	return "with-" + o.Name
}

// -----------------------------------------------------------------------------

// BuildSystem names the external build tool a recipe drives.
type BuildSystem string

const (
	CMake     BuildSystem = "cmake"
	Autotools BuildSystem = "autotools"
)

// Recipe is the imperative part of a formula expressed as data.
type Recipe struct {
	System BuildSystem

	// BuildType replaces the host default build type, e.g. "Release".
	BuildType string

	// BuildDir is the out-of-source build directory, relative to the source
	// tree.
	BuildDir string

	// Jobs is the parallelism passed to make.
	Jobs int

	// Defines are KEY=VALUE pairs appended to the configure arguments after
	// the build type, in order.
	Defines []string

	// Pre are command lines run inside BuildDir before configuring.
	Pre []string

	// TestOption is the option that enables TestTarget.
	TestOption string
	TestTarget string
}

const (
	DefaultBuildDir = "tmp"
	DefaultJobs     = 8
)

// -----------------------------------------------------------------------------

// Formula is a loaded formula.
type Formula struct {
	Metadata

	Options []Option
	Deps    Deps
	Recipe  Recipe

	// Test is the one-line post-install smoke test.
	Test string
}

// Option returns the declared option with the given name.
func (f *Formula) Option(name string) (Option, bool) {
	for _, o := range f.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// -----------------------------------------------------------------------------
