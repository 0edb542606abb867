// Package cmake drives out-of-source builds configured with cmake and
// compiled with make.
package cmake

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

// DefaultBuildType is what StdArgs sets; recipes replace it.
const DefaultBuildType = "None"

// StdArgs are the host default cmake arguments for installs into Prefix.
type StdArgs struct {
	Prefix string
}

func (s StdArgs) DefaultBuildArgs() []string {
	return []string{
		"-DCMAKE_C_FLAGS_RELEASE=-DNDEBUG",
		"-DCMAKE_CXX_FLAGS_RELEASE=-DNDEBUG",
		"-DCMAKE_INSTALL_PREFIX=" + s.Prefix,
		"-DCMAKE_BUILD_TYPE=" + DefaultBuildType,
		"-DCMAKE_FIND_FRAMEWORK=LAST",
		"-DCMAKE_VERBOSE_MAKEFILE=ON",
		"-Wno-dev",
	}
}

// CMake runs configure/build/test/install for one source tree.
type CMake struct {
	runner     runner.Runner
	sourceDir  string
	buildDir   string
	defaults   buildsys.DefaultArgs
	buildType  string
	defines    []string
	jobs       int
	testTarget string
	env        buildsys.Env
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake that configures sourceDir from buildDir.
func New(r runner.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		runner:     r,
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		jobs:       1,
		testTarget: "test",
		env:        buildsys.Env{},
	}
}

// Defaults sets the host default arguments.
func (c *CMake) Defaults(d buildsys.DefaultArgs) *CMake {
	c.defaults = d
	return c
}

// BuildType sets CMAKE_BUILD_TYPE, replacing the default one.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Define adds a KEY=VALUE definition.
func (c *CMake) Define(kv string) *CMake {
	c.defines = append(c.defines, kv)
	return c
}

// Jobs sets make parallelism.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

// TestTarget sets the make target run by Test.
func (c *CMake) TestTarget(name string) *CMake {
	c.testTarget = name
	return c
}

func (c *CMake) Dir() string {
	return c.buildDir
}

// Args assembles the configure arguments: the defaults without their build
// type, the build type override, the recipe defines in order, and finally the
// path to the source tree relative to the build dir.
func (c *CMake) Args() []string {
	var args *Args
	if c.defaults != nil {
		args = NewArgs(c.defaults.DefaultBuildArgs()...)
	} else {
		args = NewArgs()
	}
	if c.buildType != "" {
		args.Delete("-DCMAKE_BUILD_TYPE=" + DefaultBuildType)
		args.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	for _, kv := range c.defines {
		k, v, _ := strings.Cut(kv, "=")
		args.Define(k, v)
	}
	return args.Append(c.sourceArg()).Strings()
}

func (c *CMake) sourceArg() string {
	rel, err := filepath.Rel(c.buildDir, c.sourceDir)
	if err != nil {
		return c.sourceDir
	}
	return filepath.ToSlash(rel)
}

func (c *CMake) Configure(ctx context.Context) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.run(ctx, "configure", "cmake", c.Args()...)
}

// Build runs "make -j<jobs>".
func (c *CMake) Build(ctx context.Context) error {
	return c.run(ctx, "build", makeProgram(), c.jobsFlag())
}

// Test runs "make <test target>".
func (c *CMake) Test(ctx context.Context) error {
	return c.run(ctx, "test", makeProgram(), c.testTarget)
}

// Install runs "make -j<jobs> install".
func (c *CMake) Install(ctx context.Context) error {
	return c.run(ctx, "install", makeProgram(), c.jobsFlag(), "install")
}

func (c *CMake) jobsFlag() string {
	return fmt.Sprintf("-j%d", c.jobs)
}

func (c *CMake) run(ctx context.Context, name, cmd string, args ...string) error {
	return c.runner.Run(ctx, runner.Step{
		Name: name,
		Dir:  c.buildDir,
		Cmd:  cmd,
		Args: args,
		Env:  c.env.List(),
	})
}

// Use configures the build environment so that cmake and compilers find
// headers, libraries and pkg-config files installed under root.
func (c *CMake) Use(root string) {
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	sep := string(os.PathListSeparator)
	if _, err := os.Stat(pkgconfigDir); err == nil {
		c.env.Prepend("PKG_CONFIG_PATH", pkgconfigDir, sep, os.Getenv)
	}
	c.env.Prepend("CMAKE_PREFIX_PATH", root, sep, os.Getenv)
	if _, err := os.Stat(includeDir); err == nil {
		c.env.Prepend("CMAKE_INCLUDE_PATH", includeDir, sep, os.Getenv)
	}
	if _, err := os.Stat(libDir); err == nil {
		c.env.Prepend("CMAKE_LIBRARY_PATH", libDir, sep, os.Getenv)
	}

	if runtime.GOOS == "windows" {
		if _, err := os.Stat(includeDir); err == nil {
			c.env.Prepend("INCLUDE", includeDir, sep, os.Getenv)
		}
		if _, err := os.Stat(libDir); err == nil {
			c.env.Prepend("LIB", libDir, sep, os.Getenv)
		}
	} else {
		if _, err := os.Stat(includeDir); err == nil {
			c.env.AppendFlag("CPPFLAGS", "-I"+includeDir, os.Getenv)
		}
		if _, err := os.Stat(libDir); err == nil {
			c.env.AppendFlag("LDFLAGS", "-L"+libDir, os.Getenv)
		}
	}
}

// makeProgram returns $MAKE or the platform make.
func makeProgram() string {
	if m := os.Getenv("MAKE"); m != "" {
		return m
	}
	if runtime.GOOS == "windows" {
		return "nmake"
	}
	return "make"
}
