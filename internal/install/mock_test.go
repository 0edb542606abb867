package install

import (
	"context"
	"strings"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/pkgs/runner"
)

// callLog records resolver and runner calls in one ordered list.
type callLog struct {
	calls      []string
	steps      []runner.Step
	failStep   string
	resolveErr error
}

func (l *callLog) Run(ctx context.Context, step runner.Step) error {
	l.calls = append(l.calls, step.String())
	l.steps = append(l.steps, step)
	if step.Name == l.failStep {
		return &runner.ExitError{Step: step, Code: 2}
	}
	return nil
}

func (l *callLog) Resolve(ctx context.Context, deps []formula.Dependency) error {
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	l.calls = append(l.calls, "resolve "+strings.Join(names, " "))
	return l.resolveErr
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (l *callLog) index(prefix string) int {
	for i, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
