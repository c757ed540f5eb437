package chat

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/assistant"
	"bookingAgent/internal/lib/api/response"
	"bookingAgent/internal/lib/logger/sl"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

type Request struct {
	Messages              []Message `json:"messages" validate:"required,min=1,dive"`
	ShowIntermediateSteps bool      `json:"show_intermediate_steps,omitempty"`
}

type TranscriptResponse struct {
	response.Response
	Messages []agent.Message `json:"messages"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Assistant
type Assistant interface {
	Stream(ctx context.Context, messages []agent.Message, emit func(string) error) error
	Transcript(ctx context.Context, messages []agent.Message) ([]agent.Message, error)
}

func New(log *slog.Logger, assist Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.New"

		log := log.With(slog.String("op", op))

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				log.Error("invalid request", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationError(validateErr))
				return
			}
		}

		messages := make([]agent.Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			messages = append(messages, agent.Message{Role: agent.Role(m.Role), Content: m.Content})
		}

		log = log.With(
			slog.Int("messages", len(messages)),
			slog.Bool("intermediate_steps", req.ShowIntermediateSteps),
		)

		if req.ShowIntermediateSteps {
			transcript, err := assist.Transcript(r.Context(), messages)
			if err != nil {
				log.Error("chat failed", sl.Err(err))
				renderError(w, r, err)
				return
			}

			log.Info("transcript produced", slog.Int("transcript", len(transcript)))

			render.JSON(w, r, TranscriptResponse{
				Response: response.OK(),
				Messages: transcript,
			})
			return
		}

		sw := newStreamWriter(w)

		err = assist.Stream(r.Context(), messages, sw.write)
		if err != nil {
			if !sw.started {
				log.Error("chat failed", sl.Err(err))
				renderError(w, r, err)
				return
			}
			log.Error("chat failed mid-stream", slog.Int("bytes", sw.written), sl.Err(err))
			return
		}

		sw.start()

		log.Info("answer streamed", slog.Int("bytes", sw.written))
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assistant.ErrNoMessages):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("conversation must contain a user or assistant message"))
	case errors.Is(err, context.DeadlineExceeded):
		render.Status(r, http.StatusGatewayTimeout)
		render.JSON(w, r, response.Error("assistant timed out"))
	case errors.Is(err, agent.ErrAgentExhausted):
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("assistant could not complete the request"))
	default:
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err.Error()))
	}
}

// streamWriter commits the plain-text response on the first chunk, so errors
// raised before any answer text can still be reported as JSON.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	written int
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher}
}

func (s *streamWriter) start() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamWriter) write(chunk string) error {
	if chunk == "" {
		return nil
	}

	s.start()

	n, err := io.WriteString(s.w, chunk)
	s.written += n
	if err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}

	return nil
}
