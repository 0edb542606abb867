package cmake

import (
	"context"

	"github.com/kegworks/keg/pkgs/runner"
)

// recordRunner records steps instead of running them.
type recordRunner struct {
	steps []runner.Step
	err   error
}

func (r *recordRunner) Run(ctx context.Context, step runner.Step) error {
	r.steps = append(r.steps, step)
	return r.err
}
