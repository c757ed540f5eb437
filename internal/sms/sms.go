package sms

import (
	"bookingAgent/internal/lib/logger/handlers/slogdiscard"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var ErrEmptyRecipient = errors.New("empty recipient")

// Receipt identifies a message accepted by the provider.
type Receipt struct {
	ProviderID string `json:"provider_id"`
	Status     string `json:"status,omitempty"`
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender delivers messages through the Twilio Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
	log  *slog.Logger
}

func NewTwilio(accountSID, authToken, from string, log *slog.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilio(client.Api, from, log)
}

func newTwilio(api messageCreator, from string, log *slog.Logger) *TwilioSender {
	if log == nil {
		log = slogdiscard.NewDiscardLogger()
	}
	return &TwilioSender{api: api, from: from, log: log}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (Receipt, error) {
	const op = "sms.TwilioSender.Send"

	to = strings.TrimSpace(to)
	if to == "" {
		return Receipt{}, fmt.Errorf("%s: %w", op, ErrEmptyRecipient)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}

	var receipt Receipt
	if msg.Sid != nil {
		receipt.ProviderID = *msg.Sid
	}
	if msg.Status != nil {
		receipt.Status = *msg.Status
	}

	s.log.Info("sms sent", slog.String("op", op), slog.String("sid", receipt.ProviderID))

	return receipt, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *LogSender {
	if log == nil {
		log = slogdiscard.NewDiscardLogger()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, body string) (Receipt, error) {
	const op = "sms.LogSender.Send"

	to = strings.TrimSpace(to)
	if to == "" {
		return Receipt{}, fmt.Errorf("%s: %w", op, ErrEmptyRecipient)
	}

	id := "log-" + uuid.NewString()
	s.log.Info("sms",
		slog.String("op", op),
		slog.String("to", to),
		slog.String("id", id),
		slog.String("body", body),
	)

	return Receipt{ProviderID: id, Status: "logged"}, nil
}
