package pipeline

import (
	"errors"
	"fmt"
)

// ErrUsage marks invalid options; the CLI maps it to exit code 2.
var ErrUsage = errors.New("usage error")

const (
	StepGenerate  = "generate"
	StepSentiment = "sentiment"
	StepRL        = "rl"
)

// StepError reports which step aborted the run. ExitCode is the child's exit
// status, or 0 when the failure did not come from a finished child.
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("step %s failed (exit %d): %v", e.Step, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepError(step string, err error) error {
	if err == nil {
		return nil
	}
	se := &StepError{Step: step, Err: err}
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) && ec.ExitCode() > 0 {
		se.ExitCode = ec.ExitCode()
	}
	return se
}
