package executor

import (
	"context"
	"encoding/json"
	"fmt"
)

// Executor performs a remote write for a queued mutation.
//
// Contract: every registered mutation must be idempotent or safely
// retryable. A crash mid-flight leaves the engine unable to tell
// whether the call landed, and the entry will be re-attempted.
type Executor interface {
	Execute(ctx context.Context, mutation string, payload json.RawMessage) error
}

// ExecError is a mutation failure reported by the backend. Its message
// is what lands on the failed queue entry.
type ExecError struct {
	Mutation string
	Status   int
	Message  string
}

func (e *ExecError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed with status %d", e.Mutation, e.Status)
}
