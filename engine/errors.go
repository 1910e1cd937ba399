package engine

import (
	"errors"
	"fmt"
)

// CancelledError reports that a run was abandoned because the interrupt
// generation advanced while an operation was in flight.
type CancelledError struct {
	AgentID string
	Reason  string
}

func (e *CancelledError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("run cancelled: %s", e.Reason)
	}
	return fmt.Sprintf("agent %s cancelled: %s", e.AgentID, e.Reason)
}

// MaxIterationsError reports that a loop gave up after reaching its
// iteration budget without producing a final answer.
type MaxIterationsError struct {
	AgentID string
	Limit   int
}

func (e *MaxIterationsError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("max iterations reached (%d)", e.Limit)
	}
	return fmt.Sprintf("agent %s: max iterations reached (%d)", e.AgentID, e.Limit)
}

// IsCancelled reports whether err is (or wraps) a cancellation.
// Cancellations are expected outcomes of a user interrupt and callers
// usually avoid logging them as malfunctions.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}
