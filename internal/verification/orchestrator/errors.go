package orchestrator

import (
	"fmt"

	"pastmatters/internal/verification/models"
)

// FaultError is an internal failure the orchestrator cannot route around,
// such as the job store becoming unreachable. It fails the job; its message
// becomes the job's error string.
type FaultError struct {
	Stage models.Stage
	Err   error
}

func (e *FaultError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("verification run failed: %v", e.Err)
	}
	return fmt.Sprintf("verification run failed during %s: %v", e.Stage, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
