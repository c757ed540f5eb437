package agent_test

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/llm/scripted"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTools struct {
	mu    sync.Mutex
	names []string
	calls []agent.ToolCall
	fail  map[string]error
	delay time.Duration
}

func (r *recordingTools) Definitions() []agent.ToolDefinition {
	defs := make([]agent.ToolDefinition, 0, len(r.names))
	for _, n := range r.names {
		defs = append(defs, agent.ToolDefinition{Name: n, Description: n})
	}
	return defs
}

func (r *recordingTools) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return agent.ToolResult{}, ctx.Err()
		}
	}
	if err := r.fail[call.Name]; err != nil {
		return agent.ToolResult{}, err
	}
	return agent.ToolResult{Content: `{"tool":"` + call.Name + `","args":` + call.Arguments + `}`}, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
	tools    map[string]int
}

func (c *countingRecorder) ToolCall(name string, _ bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tools == nil {
		c.tools = map[string]int{}
	}
	c.tools[name]++
}

func (c *countingRecorder) Run(outcome string, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func userTurn(text string) []agent.Message {
	return []agent.Message{{Role: agent.RoleUser, Content: text}}
}

func TestRun_FinalAnswerStreams(t *testing.T) {
	t.Parallel()

	model := scripted.New(scripted.Answer("Hello", ", ", "world"))
	loop, err := agent.New(model, &recordingTools{})
	require.NoError(t, err)

	var streamed strings.Builder
	res, err := loop.Run(context.Background(), userTurn("hi"), func(s string) error {
		streamed.WriteString(s)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello, world", res.Answer)
	assert.Equal(t, res.Answer, streamed.String())
	assert.Equal(t, 1, res.Rounds)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, agent.RoleAssistant, res.Messages[1].Role)
}

func TestRun_ToolCallsExecuteInOrder(t *testing.T) {
	t.Parallel()

	tools := &recordingTools{names: []string{"A", "B", "C"}}
	model := scripted.New(
		scripted.Call(
			agent.ToolCall{ID: "1", Name: "C", Arguments: `{"n":1}`},
			agent.ToolCall{ID: "2", Name: "A", Arguments: `{"n":2}`},
			agent.ToolCall{ID: "3", Name: "B", Arguments: `{"n":3}`},
		),
		scripted.Answer("done"),
	)

	loop, err := agent.New(model, tools)
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), userTurn("go"), nil)
	require.NoError(t, err)

	require.Len(t, tools.calls, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{tools.calls[0].Name, tools.calls[1].Name, tools.calls[2].Name})

	// user, assistant(tool calls), 3 observations, final answer
	require.Len(t, res.Messages, 6)
	for i, id := range []string{"1", "2", "3"} {
		obs := res.Messages[2+i]
		assert.Equal(t, agent.RoleTool, obs.Role)
		assert.Equal(t, id, obs.ToolCallID)
	}
	assert.Equal(t, "done", res.Answer)
	assert.Equal(t, 2, res.Rounds)

	// The second model turn sees every observation.
	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 5)
	assert.Len(t, reqs[0].Tools, 3)
}

func TestRun_UnknownToolBecomesObservation(t *testing.T) {
	t.Parallel()

	tools := &recordingTools{names: []string{"A"}}
	model := scripted.New(
		scripted.Call(agent.ToolCall{ID: "1", Name: "Imaginary", Arguments: "{}"}),
		scripted.Answer("sorry"),
	)
	rec := &countingRecorder{}

	loop, err := agent.New(model, tools, agent.WithRecorder(rec))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), userTurn("go"), nil)
	require.NoError(t, err)

	assert.Empty(t, tools.calls)
	obs := res.Messages[2]
	assert.Equal(t, agent.RoleTool, obs.Role)
	assert.JSONEq(t, `{"error":"unknown tool: \"Imaginary\""}`, obs.Content)
	assert.Equal(t, "sorry", res.Answer)
	assert.Equal(t, []string{"completed"}, rec.outcomes)
	assert.Equal(t, 1, rec.tools["Imaginary"])
}

func TestRun_Exhausted(t *testing.T) {
	t.Parallel()

	tools := &recordingTools{names: []string{"A"}}
	model := scripted.Repeating(scripted.Call(agent.ToolCall{ID: "1", Name: "A", Arguments: "{}"}))
	rec := &countingRecorder{}

	loop, err := agent.New(model, tools, agent.WithMaxRounds(3), agent.WithRecorder(rec))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), userTurn("go"), nil)
	require.ErrorIs(t, err, agent.ErrAgentExhausted)

	assert.Equal(t, 3, res.Rounds)
	assert.Len(t, model.Requests(), 3)
	assert.Len(t, tools.calls, 3)
	assert.Equal(t, []string{"exhausted"}, rec.outcomes)
}

func TestRun_DefaultRoundCap(t *testing.T) {
	t.Parallel()

	model := scripted.Repeating(scripted.Call(agent.ToolCall{ID: "1", Name: "A", Arguments: "{}"}))
	loop, err := agent.New(model, &recordingTools{names: []string{"A"}}, agent.WithMaxRounds(0))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), userTurn("go"), nil)
	require.ErrorIs(t, err, agent.ErrAgentExhausted)
	assert.Equal(t, agent.DefaultMaxRounds, res.Rounds)
}

func TestRun_ModelFailureIsTransportError(t *testing.T) {
	t.Parallel()

	model := scripted.New(scripted.Turn{Err: errors.New("502 bad gateway")})
	rec := &countingRecorder{}

	loop, err := agent.New(model, &recordingTools{}, agent.WithRecorder(rec))
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), userTurn("go"), nil)

	var terr *agent.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "model", terr.Op)
	assert.Equal(t, []string{"failed"}, rec.outcomes)
}

func TestRun_ToolFailureIsTransportError(t *testing.T) {
	t.Parallel()

	dbDown := errors.New("connection refused")
	tools := &recordingTools{names: []string{"A", "B"}, fail: map[string]error{"A": dbDown}}
	model := scripted.New(
		scripted.Call(
			agent.ToolCall{ID: "1", Name: "A", Arguments: "{}"},
			agent.ToolCall{ID: "2", Name: "B", Arguments: "{}"},
		),
		scripted.Answer("unreachable"),
	)

	loop, err := agent.New(model, tools)
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), userTurn("go"), nil)
	require.ErrorIs(t, err, dbDown)

	var terr *agent.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "tool A", terr.Op)
	assert.Len(t, tools.calls, 1)
}

func TestRun_ToolTimeout(t *testing.T) {
	t.Parallel()

	tools := &recordingTools{names: []string{"Slow"}, delay: time.Second}
	model := scripted.New(
		scripted.Call(agent.ToolCall{ID: "1", Name: "Slow", Arguments: "{}"}),
		scripted.Answer("unreachable"),
	)

	loop, err := agent.New(model, tools, agent.WithToolTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), userTurn("go"), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var terr *agent.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop, err := agent.New(scripted.New(scripted.Answer("x")), &recordingTools{})
	require.NoError(t, err)

	_, err = loop.Run(ctx, userTurn("go"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DeltaErrorAborts(t *testing.T) {
	t.Parallel()

	loop, err := agent.New(scripted.New(scripted.Answer("a", "b")), &recordingTools{})
	require.NoError(t, err)

	clientGone := errors.New("client gone")
	_, err = loop.Run(context.Background(), userTurn("go"), func(string) error { return clientGone })
	assert.ErrorIs(t, err, clientGone)
}

func TestRun_DoesNotMutateHistory(t *testing.T) {
	t.Parallel()

	history := userTurn("go")
	model := scripted.New(
		scripted.Call(agent.ToolCall{ID: "1", Name: "A", Arguments: "{}"}),
		scripted.Answer("ok"),
	)

	loop, err := agent.New(model, &recordingTools{names: []string{"A"}})
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestNew_Requires(t *testing.T) {
	t.Parallel()

	_, err := agent.New(nil, &recordingTools{})
	assert.Error(t, err)

	_, err = agent.New(scripted.New(), nil)
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "awaiting_model", agent.StateAwaitingModel.String())
	assert.Equal(t, "executing_tool", agent.StateExecutingTool.String())
	assert.Equal(t, "done", agent.StateDone.String())
}
