package agent

import (
	"context"
	"time"
)

// ModelRequest is the input for one model turn.
type ModelRequest struct {
	Messages []Message
	Tools    []ToolDefinition
}

// DeltaFunc receives answer text as the model produces it. Returning an error
// aborts the turn.
type DeltaFunc func(text string) error

// Model produces the next assistant message. Implementations forward content
// fragments through onDelta (when non-nil) while generating, and never forward
// tool-call arguments.
type Model interface {
	Generate(ctx context.Context, request ModelRequest, onDelta DeltaFunc) (Message, error)
}

// ToolExecutor exposes the tool catalog and executes calls. Recoverable
// failures are reported in ToolResult; a non-nil error is fatal for the run.
type ToolExecutor interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
}

// Recorder observes loop activity, typically for metrics.
type Recorder interface {
	ToolCall(name string, isError bool, took time.Duration)
	Run(outcome string, rounds int)
}

type noopRecorder struct{}

func (noopRecorder) ToolCall(string, bool, time.Duration) {}
func (noopRecorder) Run(string, int)                      {}
