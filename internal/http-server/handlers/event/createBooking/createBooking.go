package createBooking

import (
	"bookingAgent/internal/lib/api/response"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"bookingAgent/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type BookingRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	VisitDate  string `json:"visit_date" validate:"required,datetime=2006-01-02"`
	VisitTime  string `json:"visit_time" validate:"omitempty,datetime=15:04"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity" validate:"required,gt=0,max=100000"`
}

type BookingResponse struct {
	response.Response
	Booking *models.Booking `json:"booking"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingCreator
type BookingCreator interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	BookEvent(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
}

// New books tickets for an event. The visit date must fall inside the event's
// window, read in the server's local time zone.
func New(log *slog.Logger, booking BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.createBooking.New"

		log := log.With(slog.String("op", op))

		eventID := chi.URLParam(r, "id")
		if eventID == "" {
			log.Error("event id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event id is required"))
			return
		}

		log = log.With(slog.String("event_id", eventID))

		var req BookingRequest

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
			if errors.As(err, &validateErr) {
				log.Error("invalid request", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationError(validateErr))
				return
			}
		}

		event, err := booking.GetEvent(r.Context(), eventID)
		if err != nil {
			log.Error("failed to get event", sl.Err(err))

			if errors.Is(err, storage.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("event not found"))
				return
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to book event"))
			return
		}

		open, err := event.OpenOnDate(req.VisitDate, time.Local)
		if err != nil || !open {
			log.Info("visit date outside event window", slog.String("visit_date", req.VisitDate))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event is not open on "+req.VisitDate))
			return
		}

		created, err := booking.BookEvent(r.Context(), models.BookingRequest{
			UserID:     req.UserID,
			EventID:    eventID,
			VisitDate:  req.VisitDate,
			VisitTime:  req.VisitTime,
			TicketType: req.TicketType,
			Quantity:   req.Quantity,
		})
		if err != nil {
			log.Error("failed to book event", sl.Err(err))

			switch {
			case errors.Is(err, storage.ErrCapacityExceeded):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("not enough capacity available"))
			case errors.Is(err, storage.ErrInvalidQuantity):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid ticket quantity"))
			case errors.Is(err, storage.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("event or user not found"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to book event"))
			}
			return
		}

		log.Info("event booked successfully",
			slog.String("user_id", req.UserID),
			slog.String("booking_id", created.ID),
		)

		render.Status(r, http.StatusCreated)
		responseOK(w, r, created)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *models.Booking) {
	render.JSON(w, r, BookingResponse{
		Response: response.OK(),
		Booking:  booking,
	})
}
