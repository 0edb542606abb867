// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kegworks/keg/pkgs/buildsys"
	"github.com/kegworks/keg/pkgs/runner"
)

// StdArgs are the host default configure arguments for installs into Prefix.
type StdArgs struct {
	Prefix string
}

func (s StdArgs) DefaultBuildArgs() []string {
	return []string{
		"--disable-debug",
		"--disable-dependency-tracking",
		"--prefix=" + s.Prefix,
	}
}

// AutoTools drives Autotools-style builds.
type AutoTools struct {
	runner     runner.Runner
	sourceDir  string
	buildDir   string
	defaults   buildsys.DefaultArgs
	flags      []string
	jobs       int
	testTarget string
	env        buildsys.Env
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns an AutoTools running <sourceDir>/configure from buildDir.
func New(r runner.Runner, sourceDir, buildDir string) *AutoTools {
	return &AutoTools{
		runner:     r,
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		jobs:       1,
		testTarget: "check",
		env:        buildsys.Env{},
	}
}

// Defaults sets the host default arguments.
func (a *AutoTools) Defaults(d buildsys.DefaultArgs) *AutoTools {
	a.defaults = d
	return a
}

// Define adds KEY=VALUE as --KEY=VALUE, replacing a default with the same key.
func (a *AutoTools) Define(kv string) *AutoTools {
	a.flags = append(a.flags, "--"+strings.TrimPrefix(kv, "--"))
	return a
}

// Jobs sets make parallelism.
func (a *AutoTools) Jobs(n int) *AutoTools {
	a.jobs = n
	return a
}

// TestTarget sets the make target run by Test.
func (a *AutoTools) TestTarget(name string) *AutoTools {
	a.testTarget = name
	return a
}

func (a *AutoTools) Dir() string {
	return a.buildDir
}

// Args returns the configure flags.
func (a *AutoTools) Args() []string {
	var args []string
	if a.defaults != nil {
		args = a.defaults.DefaultBuildArgs()
	}
	for _, f := range a.flags {
		key, _, _ := strings.Cut(f, "=")
		out := args[:0]
		for _, d := range args {
			if k, _, _ := strings.Cut(d, "="); k != key {
				out = append(out, d)
			}
		}
		args = append(out, f)
	}
	return args
}

// Configure runs <sourceDir>/configure inside buildDir.
func (a *AutoTools) Configure(ctx context.Context) error {
	if err := os.MkdirAll(a.buildDir, 0o755); err != nil {
		return err
	}
	exe := filepath.Join(a.sourceDir, "configure")
	if rel, err := filepath.Rel(a.buildDir, exe); err == nil {
		exe = rel
		if !strings.Contains(exe, string(filepath.Separator)) {
			exe = "." + string(filepath.Separator) + exe
		}
	}
	return a.run(ctx, "configure", exe, a.Args()...)
}

// Build runs "make -j<jobs>".
func (a *AutoTools) Build(ctx context.Context) error {
	return a.run(ctx, "build", "make", a.jobsFlag())
}

// Test runs "make <test target>".
func (a *AutoTools) Test(ctx context.Context) error {
	return a.run(ctx, "test", "make", a.testTarget)
}

// Install runs "make -j<jobs> install".
func (a *AutoTools) Install(ctx context.Context) error {
	return a.run(ctx, "install", "make", a.jobsFlag(), "install")
}

func (a *AutoTools) jobsFlag() string {
	return fmt.Sprintf("-j%d", a.jobs)
}

func (a *AutoTools) run(ctx context.Context, name, cmd string, args ...string) error {
	return a.runner.Run(ctx, runner.Step{
		Name: name,
		Dir:  a.buildDir,
		Cmd:  cmd,
		Args: args,
		Env:  a.env.List(),
	})
}

// Use adds include/lib/pkgconfig paths under root to the build environment.
func (a *AutoTools) Use(root string) {
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	sep := string(os.PathListSeparator)
	if _, err := os.Stat(pkgconfigDir); err == nil {
		a.env.Prepend("PKG_CONFIG_PATH", pkgconfigDir, sep, os.Getenv)
	}
	if runtime.GOOS == "windows" {
		return
	}
	if _, err := os.Stat(includeDir); err == nil {
		a.env.AppendFlag("CPPFLAGS", "-I"+includeDir, os.Getenv)
	}
	if _, err := os.Stat(libDir); err == nil {
		a.env.AppendFlag("LDFLAGS", "-L"+libDir, os.Getenv)
	}
}
