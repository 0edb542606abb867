// Package runner runs the external commands of an install as steps.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

// Step is one external process invocation.
type Step struct {
	Name string   // short label, e.g. "configure"
	Dir  string   // working directory, empty means the current one
	Cmd  string   // executable
	Args []string // passed verbatim
	Env  []string // extra KEY=VALUE pairs on top of the process environment
}

// String returns the command line of the step.
func (s Step) String() string {
	if len(s.Args) == 0 {
		return s.Cmd
	}
	return s.Cmd + " " + strings.Join(s.Args, " ")
}

// Runner executes steps. A non-nil error means the step failed and nothing
// after it should run.
type Runner interface {
	Run(ctx context.Context, step Step) error
}

// RunAll runs steps in order and stops at the first failure.
func RunAll(ctx context.Context, r Runner, steps ...Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Run(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Command builds a step from a one-line command such as
// "pip install --upgrade h5py". Quoting follows POSIX shell rules.
func Command(name, dir, cmdline string) (Step, error) {
	fields, err := shell.Fields(cmdline, func(string) string { return "" })
	if err != nil {
		return Step{}, fmt.Errorf("%s: parse %q: %w", name, cmdline, err)
	}
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("%s: empty command", name)
	}
	return Step{Name: name, Dir: dir, Cmd: fields[0], Args: fields[1:]}, nil
}

// -----------------------------------------------------------------------------

// ExitError reports a step whose process returned a non-zero status.
type ExitError struct {
	Step Step
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %q exited with status %d", e.Step.Name, e.Step.String(), e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------

// Exec runs steps as child processes.
type Exec struct {
	// Stdout and Stderr receive the process output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	Logger *log.Logger
}

// NewExec returns an Exec that streams output to w when verbose is set.
func NewExec(logger *log.Logger, w io.Writer, verbose bool) *Exec {
	r := &Exec{Logger: logger}
	if verbose {
		r.Stdout = w
		r.Stderr = w
	}
	return r
}

func (r *Exec) Run(ctx context.Context, step Step) error {
	if r.Logger != nil {
		r.Logger.Info("run", "step", step.Name, "cmd", step.String(), "dir", step.Dir)
	}
	cmd := exec.CommandContext(ctx, step.Cmd, step.Args...)
	cmd.Dir = step.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(step.Env) > 0 {
		cmd.Env = append(os.Environ(), step.Env...)
	}
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Step: step, Code: ee.ExitCode(), Err: err}
	}
	return fmt.Errorf("%s: %w", step.Name, err)
}

// -----------------------------------------------------------------------------

// DryRun logs steps without running them.
type DryRun struct {
	Logger *log.Logger
}

func (r DryRun) Run(ctx context.Context, step Step) error {
	if r.Logger != nil {
		r.Logger.Info("dry run", "step", step.Name, "cmd", step.String(), "dir", step.Dir)
	}
	return ctx.Err()
}
