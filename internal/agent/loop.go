package agent

import (
	"bookingAgent/internal/lib/logger/handlers/slogdiscard"
	"bookingAgent/internal/lib/logger/sl"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const DefaultMaxRounds = 12

// State is the position of a run in the loop.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTool
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateExecutingTool:
		return "executing_tool"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of a completed run.
type Result struct {
	// Messages is the input history followed by every assistant turn and
	// tool observation the run produced.
	Messages []Message
	Answer   string
	Rounds   int
}

// Loop alternates between the model and the tool executor until the model
// answers without tool calls. A Loop holds no per-run state and may serve
// concurrent runs.
type Loop struct {
	model       Model
	tools       ToolExecutor
	log         *slog.Logger
	recorder    Recorder
	maxRounds   int
	toolTimeout time.Duration
}

type Option func(*Loop)

func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

func WithRecorder(r Recorder) Option {
	return func(l *Loop) {
		l.recorder = r
	}
}

// WithMaxRounds caps the number of model turns per run.
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		l.maxRounds = n
	}
}

// WithToolTimeout bounds each tool execution.
func WithToolTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.toolTimeout = d
	}
}

func New(model Model, tools ToolExecutor, opts ...Option) (*Loop, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if tools == nil {
		return nil, errors.New("tool executor is required")
	}

	l := &Loop{
		model:     model,
		tools:     tools,
		log:       slogdiscard.NewDiscardLogger(),
		recorder:  noopRecorder{},
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxRounds <= 0 {
		l.maxRounds = DefaultMaxRounds
	}

	return l, nil
}

// Run drives one conversation to a final answer. Answer text is forwarded to
// onDelta as the model streams it; onDelta may be nil.
func (l *Loop) Run(ctx context.Context, history []Message, onDelta DeltaFunc) (Result, error) {
	const op = "agent.Loop.Run"

	log := l.log.With(slog.String("op", op))

	definitions := l.tools.Definitions()
	known := make(map[string]struct{}, len(definitions))
	for _, d := range definitions {
		known[d.Name] = struct{}{}
	}

	messages := CloneMessages(history)
	state := StateAwaitingModel
	rounds := 0

	for state != StateDone {
		if err := ctx.Err(); err != nil {
			l.recorder.Run("cancelled", rounds)
			return Result{Messages: messages, Rounds: rounds}, err
		}

		switch state {
		case StateAwaitingModel:
			if rounds >= l.maxRounds {
				log.Error("round cap reached", slog.Int("rounds", rounds))
				l.recorder.Run("exhausted", rounds)
				return Result{Messages: messages, Rounds: rounds}, ErrAgentExhausted
			}
			rounds++

			reply, err := l.model.Generate(ctx, ModelRequest{
				Messages: CloneMessages(messages),
				Tools:    definitions,
			}, onDelta)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					l.recorder.Run("cancelled", rounds)
					return Result{Messages: messages, Rounds: rounds}, ctxErr
				}
				log.Error("model turn failed", slog.Int("round", rounds), sl.Err(err))
				l.recorder.Run("failed", rounds)
				return Result{Messages: messages, Rounds: rounds}, &TransportError{Op: "model", Err: err}
			}
			reply.Role = RoleAssistant
			messages = append(messages, reply)

			log.Debug("model turn completed",
				slog.Int("round", rounds),
				slog.Int("tool_calls", len(reply.ToolCalls)),
			)

			if len(reply.ToolCalls) == 0 {
				state = StateDone
			} else {
				state = StateExecutingTool
			}

		case StateExecutingTool:
			calls := messages[len(messages)-1].ToolCalls
			for _, call := range calls {
				result, err := l.execute(ctx, known, call)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						l.recorder.Run("cancelled", rounds)
						return Result{Messages: messages, Rounds: rounds}, ctxErr
					}
					log.Error("tool failed", slog.String("tool", call.Name), sl.Err(err))
					l.recorder.Run("failed", rounds)
					return Result{Messages: messages, Rounds: rounds}, &TransportError{Op: "tool " + call.Name, Err: err}
				}
				messages = append(messages, ToolResultMessage(result))
			}
			state = StateAwaitingModel
		}
	}

	l.recorder.Run("completed", rounds)

	return Result{
		Messages: messages,
		Answer:   messages[len(messages)-1].Content,
		Rounds:   rounds,
	}, nil
}

func (l *Loop) execute(ctx context.Context, known map[string]struct{}, call ToolCall) (ToolResult, error) {
	started := time.Now()

	if _, ok := known[call.Name]; !ok {
		result := ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: ErrorContent(fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)),
			IsError: true,
		}
		l.recorder.ToolCall(call.Name, true, time.Since(started))
		return result, nil
	}

	toolCtx := ctx
	if l.toolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, l.toolTimeout)
		defer cancel()
	}

	result, err := l.tools.Execute(toolCtx, call)
	if err != nil {
		l.recorder.ToolCall(call.Name, true, time.Since(started))
		return ToolResult{}, err
	}
	if result.CallID == "" {
		result.CallID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}

	l.log.Debug("tool executed",
		slog.String("tool", call.Name),
		slog.Bool("is_error", result.IsError),
	)
	l.recorder.ToolCall(call.Name, result.IsError, time.Since(started))

	return result, nil
}

// ErrorContent renders err as the observation payload the model sees.
func ErrorContent(err error) string {
	b, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	return string(b)
}
