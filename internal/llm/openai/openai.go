// Package openai adapts an OpenAI-compatible chat completions endpoint to the
// agent.Model contract, streaming answer text as server-sent events arrive.
package openai

import (
	"bookingAgent/internal/agent"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultEndpoint = "/chat/completions"
	defaultTimeout  = 60 * time.Second

	maxEventSize = 1 << 20
)

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

type Adapter struct {
	apiKey      string
	model       string
	temperature float64
	endpointURL string
	httpClient  *http.Client
}

var _ agent.Model = (*Adapter)(nil)

func New(cfg Config) (*Adapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("new model adapter: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("new model adapter: model is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Adapter{
		apiKey:      apiKey,
		model:       model,
		temperature: cfg.Temperature,
		endpointURL: strings.TrimRight(baseURL, "/") + defaultEndpoint,
		httpClient:  httpClient,
	}, nil
}

func (a *Adapter) Generate(ctx context.Context, request agent.ModelRequest, onDelta agent.DeltaFunc) (agent.Message, error) {
	encoded, err := json.Marshal(buildRequest(a.model, a.temperature, request))
	if err != nil {
		return agent.Message{}, fmt.Errorf("provider request encode: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return agent.Message{}, fmt.Errorf("provider request build: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "text/event-stream")

	response, err := a.httpClient.Do(httpRequest)
	if err != nil {
		return agent.Message{}, fmt.Errorf("provider request execute: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 64<<10))
		return agent.Message{}, fmt.Errorf("provider response status=%d body=%s", response.StatusCode, string(body))
	}

	return readStream(response.Body, onDelta)
}

// readStream folds chat.completion.chunk events into one assistant message.
// Content fragments are forwarded as they arrive until the first tool-call
// fragment shows up; after that the turn is a tool turn and content is only
// accumulated.
func readStream(body io.Reader, onDelta agent.DeltaFunc) (agent.Message, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var content strings.Builder
	calls := map[int]*agent.ToolCall{}
	args := map[int]*strings.Builder{}
	toolTurn := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return agent.Message{}, fmt.Errorf("provider stream decode: %w", err)
		}
		if chunk.Error != nil {
			return agent.Message{}, fmt.Errorf("provider stream error: %s", chunk.Error.Message)
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content.WriteString(choice.Delta.Content)
				if onDelta != nil && !toolTurn {
					if err := onDelta(choice.Delta.Content); err != nil {
						return agent.Message{}, err
					}
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				toolTurn = true
				call, ok := calls[tc.Index]
				if !ok {
					call = &agent.ToolCall{}
					calls[tc.Index] = call
					args[tc.Index] = &strings.Builder{}
				}
				if tc.ID != "" {
					call.ID = tc.ID
				}
				if tc.Function.Name != "" {
					call.Name += tc.Function.Name
				}
				args[tc.Index].WriteString(tc.Function.Arguments)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return agent.Message{}, fmt.Errorf("provider stream read: %w", err)
	}

	message := agent.Message{
		Role:    agent.RoleAssistant,
		Content: content.String(),
	}

	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		call := *calls[i]
		call.Arguments = args[i].String()
		message.ToolCalls = append(message.ToolCalls, call)
	}

	return message, nil
}
