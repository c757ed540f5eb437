// Package assistant runs the booking agent for one chat request: it prepares
// the conversation, optionally translates it and presents the result either
// as a text stream or as a full transcript.
package assistant

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/lib/logger/handlers/slogdiscard"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"bookingAgent/internal/translate"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"
)

const englishLanguage = "en"

var ErrNoMessages = errors.New("conversation has no user or assistant messages")

//go:embed prompt.tmpl
var promptTemplate string

type Runner interface {
	Run(ctx context.Context, history []agent.Message, onDelta agent.DeltaFunc) (agent.Result, error)
}

type Translator interface {
	DetectAndTranslate(ctx context.Context, text string) (translate.Detection, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

type Assistant struct {
	runner     Runner
	translator Translator
	prompt     *template.Template
	timeout    time.Duration
	now        func() time.Time
	loc        *time.Location
	log        *slog.Logger
}

type Option func(*Assistant)

// WithTranslator enables translating the latest user message to English and
// the answer back to the user's language.
func WithTranslator(t Translator) Option {
	return func(a *Assistant) {
		a.translator = t
	}
}

// WithTimeout bounds a whole request, model turns and tool calls included.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		a.timeout = d
	}
}

func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(a *Assistant) {
		a.now = now
		if loc != nil {
			a.loc = loc
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Assistant) {
		a.log = log
	}
}

func New(runner Runner, opts ...Option) (*Assistant, error) {
	if runner == nil {
		return nil, errors.New("assistant: runner is required")
	}

	prompt, err := template.New("prompt").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("assistant: parse prompt: %w", err)
	}

	a := &Assistant{
		runner: runner,
		prompt: prompt,
		now:    time.Now,
		loc:    time.Local,
		log:    slogdiscard.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Normalize keeps only user and assistant turns and strips everything but
// their text.
func Normalize(messages []agent.Message) []agent.Message {
	out := make([]agent.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != agent.RoleUser && m.Role != agent.RoleAssistant {
			continue
		}
		out = append(out, agent.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// Stream writes only the final answer's text to emit. Without translation
// deltas are forwarded as the model produces them; with translation the
// translated answer is emitted as one chunk.
func (a *Assistant) Stream(ctx context.Context, messages []agent.Message, emit func(string) error) error {
	const op = "assistant.Stream"

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	conv, err := a.prepare(ctx, messages)
	if err != nil {
		return err
	}

	if conv.language == "" {
		if _, err := a.runner.Run(ctx, conv.history, agent.DeltaFunc(emit)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	res, err := a.runner.Run(ctx, conv.history, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	answer := a.translateBack(ctx, res.Answer, conv.language)
	if answer == "" {
		return nil
	}

	return emit(answer)
}

// Transcript returns the whole conversation after the run, tool calls and
// observations included, without the system prompt.
func (a *Assistant) Transcript(ctx context.Context, messages []agent.Message) ([]agent.Message, error) {
	const op = "assistant.Transcript"

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	conv, err := a.prepare(ctx, messages)
	if err != nil {
		return nil, err
	}

	res, err := a.runner.Run(ctx, conv.history, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transcript := res.Messages
	if len(transcript) > 0 && transcript[0].Role == agent.RoleSystem {
		transcript = transcript[1:]
	}

	if conv.language != "" {
		transcript[conv.lastUser].Content = conv.original
		last := &transcript[len(transcript)-1]
		last.Content = a.translateBack(ctx, last.Content, conv.language)
	}

	return transcript, nil
}

type conversation struct {
	history []agent.Message
	// language is set when the latest user message was translated to English.
	language string
	original string
	// lastUser indexes the translated message, not counting the system prompt.
	lastUser int
}

func (a *Assistant) prepare(ctx context.Context, messages []agent.Message) (conversation, error) {
	normalized := Normalize(messages)
	if len(normalized) == 0 {
		return conversation{}, ErrNoMessages
	}

	conv := conversation{lastUser: -1}
	for i := len(normalized) - 1; i >= 0; i-- {
		if normalized[i].Role == agent.RoleUser {
			conv.lastUser = i
			break
		}
	}

	if a.translator != nil && conv.lastUser >= 0 {
		a.toEnglish(ctx, normalized, &conv)
	}

	prompt, err := a.systemPrompt()
	if err != nil {
		return conversation{}, err
	}

	conv.history = make([]agent.Message, 0, len(normalized)+1)
	conv.history = append(conv.history, agent.Message{Role: agent.RoleSystem, Content: prompt})
	conv.history = append(conv.history, normalized...)

	return conv, nil
}

func (a *Assistant) toEnglish(ctx context.Context, messages []agent.Message, conv *conversation) {
	const op = "assistant.toEnglish"

	text := messages[conv.lastUser].Content
	if strings.TrimSpace(text) == "" {
		return
	}

	det, err := a.translator.DetectAndTranslate(ctx, text)
	if err != nil {
		a.log.Warn("translation unavailable, using original text", slog.String("op", op), sl.Err(err))
		return
	}

	lang := strings.ToLower(strings.TrimSpace(det.DetectedLanguage))
	if lang == "" || lang == englishLanguage || det.TranslatedText == "" {
		return
	}

	conv.language = lang
	conv.original = text
	messages[conv.lastUser].Content = det.TranslatedText
}

func (a *Assistant) translateBack(ctx context.Context, text, lang string) string {
	const op = "assistant.translateBack"

	if strings.TrimSpace(text) == "" {
		return text
	}

	log := a.log.With(slog.String("op", op), slog.String("language", lang))

	out, err := a.translator.Translate(ctx, text, lang)
	if err != nil {
		log.Warn("translation unavailable, answering in English", sl.Err(err))
		return text
	}
	if out == "" {
		log.Warn("empty translation, answering in English")
		return text
	}

	return out
}

func (a *Assistant) systemPrompt() (string, error) {
	var b strings.Builder
	err := a.prompt.Execute(&b, struct{ Today string }{
		Today: a.now().In(a.loc).Format(models.DateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("assistant: render prompt: %w", err)
	}
	return b.String(), nil
}

func (a *Assistant) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}
