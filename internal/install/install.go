// Package install runs the install sequence of a formula: resolve
// dependencies, configure, build, optionally test, install, verify.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/internal/deps"
	"github.com/kegworks/keg/pkgs/buildsys"
	"github.com/kegworks/keg/pkgs/buildsys/autotools"
	"github.com/kegworks/keg/pkgs/buildsys/cmake"
	"github.com/kegworks/keg/pkgs/runner"
)

// Installer holds the collaborators of an install. None of them is optional
// except Logger.
type Installer struct {
	Runner   runner.Runner
	Resolver deps.Resolver
	Defaults buildsys.DefaultArgs
	Logger   *log.Logger

	// Jobs overrides the recipe parallelism when positive.
	Jobs int

	// KeepTmp keeps the build directory when the install fails.
	KeepTmp bool

	// DepRoots are prefixes made visible to the build.
	DepRoots []string
}

type phase struct {
	name string
	run  func(context.Context) error
}

// Result describes a finished install sequence.
type Result struct {
	Args      []string
	BuildDir  string
	Installed bool
	Verified  bool
}

// Install builds and installs the project proj with the recipe of f.
//
// The returned Result is non-nil whenever the install steps ran; a
// *VerifyError comes with Installed set.
func (in *Installer) Install(ctx context.Context, f *formula.Formula, proj *formula.Project, opts formula.Options) (res *Result, err error) {
	logger := in.logger().With("formula", f.Name)

	buildDir := filepath.Join(proj.Dir, f.Recipe.BuildDir)
	if !scoped(proj.Dir, buildDir) {
		return nil, fmt.Errorf("%w: %s: build dir %q is not a subdirectory of the source tree", formula.ErrInvalid, f.Name, f.Recipe.BuildDir)
	}

	required := Required(f, opts)
	logger.Info("resolving dependencies", "count", len(required))
	if err := in.Resolver.Resolve(ctx, required); err != nil {
		return nil, err
	}

	bs := in.buildSystem(f, proj.Dir, buildDir)
	res = &Result{Args: in.args(bs), BuildDir: buildDir}
	in.warnPrefix(logger, f, res.Args)

	if marker := markerFile(f.Recipe.System); !proj.Has(marker) {
		logger.Warn("source tree has no "+marker, "dir", proj.Dir)
	}

	_, statErr := os.Stat(buildDir)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return nil, err
	}
	defer func() {
		if !created {
			logger.Debug("build directory was part of the source tree, leaving it", "dir", buildDir)
			return
		}
		var verr *VerifyError
		if err != nil && !errors.As(err, &verr) && in.KeepTmp {
			logger.Warn("keeping build directory", "dir", buildDir)
			return
		}
		if rmErr := os.RemoveAll(buildDir); rmErr != nil {
			logger.Warn("remove build directory", "dir", buildDir, "err", rmErr)
		}
	}()

	pre := make([]runner.Step, 0, len(f.Recipe.Pre))
	for _, line := range f.Recipe.Pre {
		step, err := runner.Command("pre", buildDir, line)
		if err != nil {
			return res, err
		}
		pre = append(pre, step)
	}
	if err := runner.RunAll(ctx, in.Runner, pre...); err != nil {
		return res, &StepError{Step: "pre", Err: err}
	}

	phases := []phase{
		{"configure", bs.Configure},
		{"build", bs.Build},
	}
	if tt := f.Recipe.TestOption; tt != "" && opts.With(tt) {
		phases = append(phases, phase{"test", bs.Test})
	}
	phases = append(phases, phase{"install", bs.Install})

	for _, p := range phases {
		logger.Info(p.name)
		if err := p.run(ctx); err != nil {
			return res, &StepError{Step: p.name, Err: err}
		}
	}
	res.Installed = true

	if err := in.Verify(ctx, f); err != nil {
		return res, err
	}
	res.Verified = true
	return res, nil
}

// Verify runs the smoke test of f once. A formula without one verifies
// trivially.
func (in *Installer) Verify(ctx context.Context, f *formula.Formula) error {
	if f.Test == "" {
		return nil
	}
	step, err := runner.Command("verify", "", f.Test)
	if err != nil {
		return &VerifyError{Cmd: f.Test, Err: err}
	}
	in.logger().Info("verify", "formula", f.Name, "cmd", f.Test)
	if err := in.Runner.Run(ctx, step); err != nil {
		return &VerifyError{Cmd: f.Test, Err: err}
	}
	return nil
}

// Args returns the configure arguments the recipe of f would use.
func (in *Installer) Args(f *formula.Formula) []string {
	return in.args(in.buildSystem(f, ".", f.Recipe.BuildDir))
}

// Required returns the dependencies to resolve under opts: every declared
// one except recommended dependencies that were opted out.
func Required(f *formula.Formula, opts formula.Options) []formula.Dependency {
	var out []formula.Dependency
	for _, d := range f.Deps.List() {
		if d.Kind == formula.Recommended && opts.Without(d.Name) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (in *Installer) args(bs buildsys.BuildSystem) []string {
	switch bs := bs.(type) {
	case *cmake.CMake:
		return bs.Args()
	case *autotools.AutoTools:
		return bs.Args()
	}
	return nil
}

func (in *Installer) buildSystem(f *formula.Formula, sourceDir, buildDir string) buildsys.BuildSystem {
	r := f.Recipe
	jobs := r.Jobs
	if in.Jobs > 0 {
		jobs = in.Jobs
	}

	var bs buildsys.BuildSystem
	switch r.System {
	case formula.Autotools:
		a := autotools.New(in.Runner, sourceDir, buildDir).Jobs(jobs)
		if in.Defaults != nil {
			a.Defaults(in.Defaults)
		}
		for _, kv := range r.Defines {
			a.Define(kv)
		}
		if r.TestTarget != "" {
			a.TestTarget(r.TestTarget)
		}
		bs = a
	default:
		c := cmake.New(in.Runner, sourceDir, buildDir).Jobs(jobs).BuildType(r.BuildType)
		if in.Defaults != nil {
			c.Defaults(in.Defaults)
		}
		for _, kv := range r.Defines {
			c.Define(kv)
		}
		if r.TestTarget != "" {
			c.TestTarget(r.TestTarget)
		}
		bs = c
	}
	for _, root := range in.DepRoots {
		bs.Use(root)
	}
	return bs
}

// scoped reports whether dir lies strictly below root.
func scoped(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != "." && filepath.IsLocal(rel)
}

// warnPrefix logs when a recipe define replaces the configured install prefix.
func (in *Installer) warnPrefix(logger *log.Logger, f *formula.Formula, args []string) {
	if in.Defaults == nil || f.Recipe.System != formula.CMake {
		return
	}
	const key = "CMAKE_INSTALL_PREFIX"
	want, ok := cmake.NewArgs(in.Defaults.DefaultBuildArgs()...).Lookup(key)
	if !ok {
		return
	}
	if got, _ := cmake.NewArgs(args...).Lookup(key); got != want {
		logger.Warn("recipe overrides the configured prefix", "prefix", got, "configured", want)
	}
}

func markerFile(system formula.BuildSystem) string {
	if system == formula.Autotools {
		return "configure"
	}
	return "CMakeLists.txt"
}

func (in *Installer) logger() *log.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return log.New(io.Discard)
}
