// Package deps resolves formula dependencies through the host package
// manager.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/pkgs/runner"
)

// ErrResolve is wrapped by every resolution failure.
var ErrResolve = errors.New("dependency resolution failed")

// Resolver makes declared dependencies available before a build starts.
type Resolver interface {
	Resolve(ctx context.Context, deps []formula.Dependency) error
}

// Host resolves dependencies with host commands.
//
// Build dependencies must be tools on PATH; when missing they are installed
// with Install if it is set. Runtime dependencies are installed with Install,
// or only reported when Install is empty. Features of a dependency are
// installed with the command Features[dep.Name], e.g. "pip install" for the
// modules of "python".
type Host struct {
	Runner   runner.Runner
	Install  string
	Features map[string]string
	Logger   *log.Logger

	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

func (h *Host) Resolve(ctx context.Context, deps []formula.Dependency) error {
	var missing []string
	for _, dep := range deps {
		if dep.Kind == formula.Build {
			if h.found(dep.Name) {
				h.debug("found", dep)
				continue
			}
			if h.Install == "" {
				missing = append(missing, dep.Name)
				continue
			}
		}
		if h.Install != "" {
			if err := h.run(ctx, dep, h.Install, dep.Name); err != nil {
				return err
			}
		} else if dep.Kind != formula.Build {
			h.debug("not managed", dep)
		}
		if err := h.features(ctx, dep); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing build tools: %s", ErrResolve, strings.Join(missing, ", "))
	}
	return nil
}

func (h *Host) features(ctx context.Context, dep formula.Dependency) error {
	if len(dep.Features) == 0 {
		return nil
	}
	cmdline, ok := h.Features[dep.Name]
	if !ok || cmdline == "" {
		h.debug("features not managed", dep)
		return nil
	}
	return h.run(ctx, dep, cmdline, dep.Features...)
}

func (h *Host) run(ctx context.Context, dep formula.Dependency, cmdline string, args ...string) error {
	step, err := runner.Command("resolve "+dep.Name, "", cmdline)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResolve, err)
	}
	step.Args = append(step.Args, args...)
	if err := h.Runner.Run(ctx, step); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResolve, dep.Name, err)
	}
	return nil
}

func (h *Host) found(tool string) bool {
	lookPath := h.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(tool)
	return err == nil
}

func (h *Host) debug(msg string, dep formula.Dependency) {
	if h.Logger != nil {
		h.Logger.Debug(msg, "dep", dep.String())
	}
}
