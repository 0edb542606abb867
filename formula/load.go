package formula

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/kegworks/keg/pkgs/gnu"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid formula")

type fileDep struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Features []string `yaml:"features"`
}

type fileRecipe struct {
	System     string   `yaml:"system"`
	BuildType  string   `yaml:"build_type"`
	BuildDir   string   `yaml:"build_dir"`
	Jobs       int      `yaml:"jobs"`
	Defines    []string `yaml:"defines"`
	Pre        []string `yaml:"pre"`
	TestOption string   `yaml:"test_option"`
	TestTarget string   `yaml:"test_target"`
}

type file struct {
	Metadata `yaml:",inline"`

	Options []Option   `yaml:"options"`
	Deps    []fileDep  `yaml:"depends_on"`
	Build   fileRecipe `yaml:"build"`
	Test    string     `yaml:"test"`
}

// Load reads and validates the formula file at path.
func Load(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a YAML formula document.
func Parse(data []byte) (*Formula, error) {
	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	f := &Formula{
		Metadata: doc.Metadata,
		Options:  doc.Options,
		Test:     strings.TrimSpace(doc.Test),
		Recipe: Recipe{
			System:     BuildSystem(doc.Build.System),
			BuildType:  doc.Build.BuildType,
			BuildDir:   doc.Build.BuildDir,
			Jobs:       doc.Build.Jobs,
			Defines:    doc.Build.Defines,
			Pre:        doc.Build.Pre,
			TestOption: doc.Build.TestOption,
			TestTarget: doc.Build.TestTarget,
		},
	}
	for _, d := range doc.Deps {
		kind, err := ParseDepKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: depends_on %s: %v", ErrInvalid, d.Name, err)
		}
		f.Deps.Add(Dependency{Name: d.Name, Kind: kind, Features: d.Features})
	}
	if f.Recipe.System == "" {
		f.Recipe.System = CMake
	}
	if f.Recipe.BuildDir == "" {
		f.Recipe.BuildDir = DefaultBuildDir
	}
	if f.Recipe.Jobs == 0 {
		f.Recipe.Jobs = DefaultJobs
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the invariants a formula must hold before it is installed.
func (f *Formula) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	switch {
	case f.Name == "":
		return invalid("missing name")
	case f.URL == "" && f.Head == "":
		return invalid("%s: missing url", f.Name)
	case f.Version == "":
		return invalid("%s: missing version", f.Name)
	case !validVersion(f.Version):
		return invalid("%s: malformed version %q", f.Name, f.Version)
	}
	if f.URL != "" {
		if sum, err := hex.DecodeString(f.SHA256); err != nil || len(sum) != 32 {
			return invalid("%s: sha256 must be 64 hex characters", f.Name)
		}
	}

	seen := make(map[string]bool, len(f.Options))
	for _, o := range f.Options {
		if o.Name == "" {
			return invalid("%s: option without name", f.Name)
		}
		if seen[o.Name] {
			return invalid("%s: duplicate option %q", f.Name, o.Name)
		}
		seen[o.Name] = true
	}
	for _, d := range f.Deps.List() {
		if d.Name == "" {
			return invalid("%s: dependency without name", f.Name)
		}
	}

	r := &f.Recipe
	switch r.System {
	case CMake, Autotools:
	default:
		return invalid("%s: unsupported build system %q", f.Name, r.System)
	}
	if !filepath.IsLocal(r.BuildDir) || filepath.Clean(r.BuildDir) == "." {
		return invalid("%s: build_dir %q must be a subdirectory of the source tree", f.Name, r.BuildDir)
	}
	if r.Jobs < 1 {
		return invalid("%s: jobs must be positive", f.Name)
	}
	if r.TestOption != "" && !seen[r.TestOption] {
		return invalid("%s: test_option %q is not a declared option", f.Name, r.TestOption)
	}
	for _, def := range r.Defines {
		if k, _, ok := strings.Cut(def, "="); !ok || k == "" {
			return invalid("%s: define %q is not KEY=VALUE", f.Name, def)
		}
	}
	return nil
}

// validVersion accepts semantic versions, with or without the leading "v",
// and GNU-style versions such as "1.3" or "2.0.1-rc1".
func validVersion(v string) bool {
	if semver.IsValid("v" + strings.TrimPrefix(v, "v")) {
		return true
	}
	return gnu.Valid(v)
}
