package cancelBooking

import (
	"bookingAgent/internal/lib/api/response"
	"bookingAgent/internal/lib/logger/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type CancelResponse struct {
	response.Response
	BookingID string `json:"booking_id"`
	Cancelled bool   `json:"cancelled"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingCanceller
type BookingCanceller interface {
	CancelBooking(ctx context.Context, id string) (bool, error)
}

// New cancels a booking. Cancelling an unknown or already cancelled booking
// succeeds with cancelled=false.
func New(log *slog.Logger, booking BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.cancelBooking.New"

		log := log.With(slog.String("op", op))

		bookingID := chi.URLParam(r, "id")
		if bookingID == "" {
			log.Error("booking id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("booking id is required"))
			return
		}

		log = log.With(slog.String("booking_id", bookingID))

		cancelled, err := booking.CancelBooking(r.Context(), bookingID)
		if err != nil {
			log.Error("failed to cancel booking", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to cancel booking"))
			return
		}

		log.Info("booking cancel processed", slog.Bool("cancelled", cancelled))

		responseOK(w, r, bookingID, cancelled)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, bookingID string, cancelled bool) {
	render.JSON(w, r, CancelResponse{
		Response:  response.OK(),
		BookingID: bookingID,
		Cancelled: cancelled,
	})
}
