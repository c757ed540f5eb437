// Package scripted provides a deterministic model that replays a fixed
// sequence of assistant turns.
package scripted

import (
	"bookingAgent/internal/agent"
	"context"
	"fmt"
	"sync"
)

// Turn configures one model turn. Chunks, when set, are streamed in order and
// their concatenation becomes the message content.
type Turn struct {
	Message agent.Message
	Chunks  []string
	Err     error
}

// Answer is a final-answer turn streamed in the given chunks.
func Answer(chunks ...string) Turn {
	return Turn{Chunks: chunks}
}

// Call is a tool-calling turn.
func Call(calls ...agent.ToolCall) Turn {
	return Turn{Message: agent.Message{Role: agent.RoleAssistant, ToolCalls: calls}}
}

// Preamble is a tool-calling turn that first streams text, the way a real
// model may announce what it is about to look up.
func Preamble(text string, calls ...agent.ToolCall) Turn {
	return Turn{Message: agent.Message{Role: agent.RoleAssistant, Content: text, ToolCalls: calls}}
}

type Model struct {
	mu       sync.Mutex
	index    int
	turns    []Turn
	repeat   bool
	requests []agent.ModelRequest
}

func New(turns ...Turn) *Model {
	cloned := make([]Turn, len(turns))
	copy(cloned, turns)
	return &Model{turns: cloned}
}

// Repeating returns a model that replays its last turn forever once the
// script is used up.
func Repeating(turns ...Turn) *Model {
	m := New(turns...)
	m.repeat = true
	return m
}

var _ agent.Model = (*Model)(nil)

func (m *Model) Generate(ctx context.Context, request agent.ModelRequest, onDelta agent.DeltaFunc) (agent.Message, error) {
	if err := ctx.Err(); err != nil {
		return agent.Message{}, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, agent.ModelRequest{
		Messages: agent.CloneMessages(request.Messages),
		Tools:    request.Tools,
	})
	if m.index >= len(m.turns) {
		if !m.repeat || len(m.turns) == 0 {
			m.mu.Unlock()
			return agent.Message{}, fmt.Errorf("script exhausted at turn %d", m.index+1)
		}
		m.index = len(m.turns) - 1
	}
	turn := m.turns[m.index]
	m.index++
	m.mu.Unlock()

	if turn.Err != nil {
		return agent.Message{}, turn.Err
	}

	msg := agent.CloneMessage(turn.Message)
	msg.Role = agent.RoleAssistant

	if len(turn.Chunks) > 0 {
		msg.Content = ""
		for _, chunk := range turn.Chunks {
			if onDelta != nil {
				if err := onDelta(chunk); err != nil {
					return agent.Message{}, err
				}
			}
			msg.Content += chunk
		}
	} else if msg.Content != "" && onDelta != nil {
		if err := onDelta(msg.Content); err != nil {
			return agent.Message{}, err
		}
	}

	return msg, nil
}

// Requests returns every request the model has received.
func (m *Model) Requests() []agent.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]agent.ModelRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
