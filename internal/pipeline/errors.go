package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyIdea is returned when the idea is blank.
var ErrEmptyIdea = errors.New("project idea is empty")

// StageError is a fatal failure of one step. It aborts the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the step named by a StageError in err's chain, or "".
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
