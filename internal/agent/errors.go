package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrAgentExhausted is returned when the model keeps requesting tools past
	// the round cap.
	ErrAgentExhausted = errors.New("agent exceeded max tool-call rounds")
	// ErrUnknownTool marks observations for tool names outside the catalog.
	ErrUnknownTool = errors.New("unknown tool")
)

// TransportError wraps failures of the model or of infrastructure behind a
// tool. It always terminates the run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
