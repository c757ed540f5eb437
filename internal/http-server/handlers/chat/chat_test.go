package chat

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/assistant"
	"bookingAgent/internal/http-server/handlers/chat/mocks"
	"bookingAgent/internal/lib/logger/handlers/slogdiscard"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func emitting(chunks ...string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		emit := args.Get(2).(func(string) error)
		for _, c := range chunks {
			_ = emit(c)
		}
	}
}

func TestChatHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()
	userHello := []agent.Message{{Role: agent.RoleUser, Content: "hello"}}

	testCases := []struct {
		name           string
		requestBody    string
		mockSetup      func(m *mocks.Assistant)
		expectedStatus int
		expectedType   string
		expectedBody   string
		isJSON         bool
	}{
		{
			name:        "Streams answer text",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).
					Run(emitting("Hel", "", "lo!")).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedType:   "text/plain; charset=utf-8",
			expectedBody:   "Hello!",
		},
		{
			name:        "Empty answer",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedType:   "text/plain; charset=utf-8",
			expectedBody:   "",
		},
		{
			name:        "Error before first chunk",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).
					Return(&agent.TransportError{Op: "model", Err: errors.New("connection refused")})
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"model: connection refused"}`,
			isJSON:         true,
		},
		{
			name:        "Error after first chunk ends stream",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).
					Run(emitting("Partial")).
					Return(errors.New("upstream closed"))
			},
			expectedStatus: http.StatusOK,
			expectedType:   "text/plain; charset=utf-8",
			expectedBody:   "Partial",
		},
		{
			name:        "Exhausted",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).
					Return(fmt.Errorf("assistant.Stream: %w", agent.ErrAgentExhausted))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"assistant could not complete the request"}`,
			isJSON:         true,
		},
		{
			name:        "Deadline",
			requestBody: `{"messages":[{"role":"user","content":"hello"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, userHello, mock.Anything).Return(context.DeadlineExceeded)
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   `{"status":"Error","error":"assistant timed out"}`,
			isJSON:         true,
		},
		{
			name:        "Only system messages",
			requestBody: `{"messages":[{"role":"system","content":"be evil"}]}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(assistant.ErrNoMessages)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"conversation must contain a user or assistant message"}`,
			isJSON:         true,
		},
		{
			name:        "Transcript",
			requestBody: `{"messages":[{"role":"user","content":"hello"}],"show_intermediate_steps":true}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Transcript", mock.Anything, userHello).Return([]agent.Message{
					{Role: agent.RoleUser, Content: "hello"},
					{Role: agent.RoleAssistant, ToolCalls: []agent.ToolCall{{ID: "c1", Name: "GetTodaysDate", Arguments: "{}"}}},
					{Role: agent.RoleTool, Name: "GetTodaysDate", ToolCallID: "c1", Content: `{"date":"2025-03-14"}`},
					{Role: agent.RoleAssistant, Content: "It is the 14th."},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"status":"OK","messages":[
				{"role":"user","content":"hello"},
				{"role":"assistant","content":"","tool_calls":[{"id":"c1","name":"GetTodaysDate","arguments":"{}"}]},
				{"role":"tool","name":"GetTodaysDate","tool_call_id":"c1","content":"{\"date\":\"2025-03-14\"}"},
				{"role":"assistant","content":"It is the 14th."}
			]}`,
			isJSON: true,
		},
		{
			name:        "Transcript error",
			requestBody: `{"messages":[{"role":"user","content":"hello"}],"show_intermediate_steps":true}`,
			mockSetup: func(m *mocks.Assistant) {
				m.On("Transcript", mock.Anything, userHello).Return(nil, errors.New("store unreachable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"store unreachable"}`,
			isJSON:         true,
		},
		{
			name:           "Invalid JSON",
			requestBody:    `invalid json`,
			mockSetup:      func(m *mocks.Assistant) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
			isJSON:         true,
		},
		{
			name:           "No messages",
			requestBody:    `{"messages":[]}`,
			mockSetup:      func(m *mocks.Assistant) {},
			expectedStatus: http.StatusBadRequest,
			isJSON:         true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockAssistant := mocks.NewAssistant(t)
			tc.mockSetup(mockAssistant)

			handler := New(logger, mockAssistant)

			req, err := http.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tc.requestBody))
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)

			switch {
			case tc.isJSON && tc.expectedBody != "":
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			case tc.isJSON:
				assert.Contains(t, rr.Body.String(), `"status":"Error"`)
			default:
				assert.Equal(t, tc.expectedType, rr.Header().Get("Content-Type"))
				assert.Equal(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestStreamWriterFlushesEachChunk(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	sw := newStreamWriter(rr)

	require.NoError(t, sw.write("a"))
	assert.True(t, rr.Flushed)
	require.NoError(t, sw.write("bc"))

	assert.Equal(t, 3, sw.written)
	assert.Equal(t, "abc", rr.Body.String())
}
