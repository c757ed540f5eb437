package createEvent

import (
	"bookingAgent/internal/lib/api/response"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type EventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description"`
	TicketPrice float64   `json:"ticket_price" validate:"gte=0"`
	Start       time.Time `json:"event_start"`
	End         time.Time `json:"event_end"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
}

type EventResponse struct {
	response.Response
	EventID string `json:"event_id"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventCreator
type EventCreator interface {
	CreateEvent(ctx context.Context, event models.Event) (*models.Event, error)
}

func New(log *slog.Logger, event EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.createEvent.New"

		log := log.With(
			slog.String("op", op),
		)

		var req EventRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))

			return
		}

		log.Info("request body decoded", slog.Any("request", req))

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		if !req.End.IsZero() && !req.End.After(req.Start) {
			log.Error("invalid request", slog.Time("event_start", req.Start), slog.Time("event_end", req.End))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event_end must be after event_start"))

			return
		}

		created, err := event.CreateEvent(r.Context(), models.Event{
			Title:       req.Title,
			Category:    req.Category,
			Description: req.Description,
			TicketPrice: req.TicketPrice,
			Start:       req.Start,
			End:         req.End,
			Capacity:    req.Capacity,
		})
		if err != nil {
			log.Error("failed to add event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to add event"))

			return
		}

		log.Info("event added", slog.String("id", created.ID))

		render.Status(r, http.StatusCreated)
		responseOK(w, r, created.ID)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, eventID string) {
	render.JSON(w, r, EventResponse{
		Response: response.OK(),
		EventID:  eventID,
	})
}
