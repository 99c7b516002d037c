package pipeline

import (
	"fmt"

	"github.com/spigell/job-radar/internal/ai/scoring"
)

// OracleCallError is fatal to a run.
type OracleCallError = scoring.OracleCallError

// DispatchError means the filtered verdicts were not delivered.
type DispatchError struct {
	Status int
	Body   string
	Err    error
	// DumpFile holds the undelivered verdicts when it could be written.
	DumpFile string
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed: %v", e.Err)
	}
	return fmt.Sprintf("dispatch rejected with status %d: %s", e.Status, e.Body)
}

func (e *DispatchError) Unwrap() error { return e.Err }
