package getEventInfo

import (
	"bookingAgent/internal/lib/api/response"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"bookingAgent/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EventInfoResponse struct {
	response.Response
	Event        *models.Event       `json:"event"`
	Availability models.Availability `json:"availability"`
	Bookings     []models.Booking    `json:"bookings"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventGetter
type EventGetter interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	EventBookings(ctx context.Context, eventID string) ([]models.Booking, error)
}

func New(log *slog.Logger, info EventGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.getEventInfo.New"

		log := log.With(slog.String("op", op))

		eventID := chi.URLParam(r, "id")
		if eventID == "" {
			log.Error("event id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event id is required"))
			return
		}

		log = log.With(slog.String("event_id", eventID))

		event, err := info.GetEvent(r.Context(), eventID)
		if err != nil {
			log.Error("failed to get event information", sl.Err(err))

			if errors.Is(err, storage.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("event not found"))
				return
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to get event information"))
			return
		}

		bookings, err := info.EventBookings(r.Context(), eventID)
		if err != nil {
			log.Error("failed to get event bookings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to get event information"))
			return
		}

		log.Info("event info successfully received", slog.Int("bookings", len(bookings)))

		responseOK(w, r, event, bookings)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, event *models.Event, bookings []models.Booking) {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	render.JSON(w, r, EventInfoResponse{
		Response:     response.OK(),
		Event:        event,
		Availability: models.AvailabilityOf(*event),
		Bookings:     bookings,
	})
}
