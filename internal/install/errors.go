package install

import "fmt"

// StepError reports an external build step that failed. Nothing after the
// step ran.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// VerifyError reports a failed post-install smoke test. The install itself
// completed and is not rolled back.
type VerifyError struct {
	Cmd string
	Err error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verification %q failed: %v", e.Cmd, e.Err)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}
