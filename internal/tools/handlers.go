package tools

import (
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"bookingAgent/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

// UserBooking is a booking together with the event it is for.
type UserBooking struct {
	models.Booking
	Event *models.Event `json:"event,omitempty"`
}

type Cancellation struct {
	BookingID string `json:"booking_id"`
	Cancelled bool   `json:"cancelled"`
}

type Today struct {
	Date string `json:"date"`
}

type Calculation struct {
	Result float64 `json:"result"`
}

func (r *Registry) searchUsers(ctx context.Context, args SearchUsersArgs) ([]models.User, error) {
	users, err := r.store.SearchUsers(ctx, args.Name)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (r *Registry) createUser(ctx context.Context, args CreateUserArgs) (*models.User, error) {
	return r.store.CreateUser(ctx, models.User{
		Name:    strings.TrimSpace(args.Name),
		Email:   args.Email,
		Phone:   args.Phone,
		Address: args.Address,
	})
}

func (r *Registry) updateUser(ctx context.Context, args UpdateUserArgs) (*models.User, error) {
	return r.store.UpdateUser(ctx, args.UserID, models.UserUpdate{
		Name:    args.Name,
		Email:   args.Email,
		Phone:   args.Phone,
		Address: args.Address,
	})
}

func (r *Registry) getUserBookings(ctx context.Context, args UserIDArgs) ([]UserBooking, error) {
	if _, err := r.store.GetUser(ctx, args.UserID); err != nil {
		return nil, err
	}

	bookings, err := r.store.UserBookings(ctx, args.UserID)
	if err != nil {
		return nil, err
	}

	events := make(map[string]*models.Event)
	out := make([]UserBooking, 0, len(bookings))
	for _, b := range bookings {
		ev, ok := events[b.EventID]
		if !ok {
			ev, err = r.store.GetEvent(ctx, b.EventID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			events[b.EventID] = ev
		}
		out = append(out, UserBooking{Booking: b, Event: ev})
	}

	return out, nil
}

func (r *Registry) searchEvents(ctx context.Context, args SearchEventsArgs) ([]models.Event, error) {
	day, err := time.ParseInLocation(models.DateLayout, args.Date, r.loc)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("field date: %v", err)}
	}

	var at time.Time
	if args.Time != "" {
		at, err = time.ParseInLocation(models.DateLayout+" 15:04", args.Date+" "+args.Time, r.loc)
		if err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("field time: %v", err)}
		}
	}

	events, err := r.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if !e.OpenOn(day) || e.Remaining() == 0 {
			continue
		}
		if !at.IsZero() && !e.OpenAt(at) {
			continue
		}
		out = append(out, e)
	}

	return out, nil
}

func (r *Registry) checkEventAvailability(ctx context.Context, args EventIDArgs) (models.Availability, error) {
	event, err := r.store.GetEvent(ctx, args.EventID)
	if err != nil {
		return models.Availability{}, err
	}
	return models.AvailabilityOf(*event), nil
}

func (r *Registry) getEventCategories(ctx context.Context, _ NoArgs) ([]string, error) {
	events, err := r.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := []string{}
	for _, e := range events {
		c := strings.TrimSpace(e.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return categories, nil
}

func (r *Registry) bookEvent(ctx context.Context, args BookEventArgs) (*models.Booking, error) {
	event, err := r.store.GetEvent(ctx, args.EventID)
	if err != nil {
		return nil, err
	}

	open, err := event.OpenOnDate(args.VisitDate, r.loc)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("field visit_date: %v", err)}
	}
	if !open {
		return nil, &ValidationError{Msg: fmt.Sprintf("event %s is not open on %s", event.ID, args.VisitDate)}
	}

	return r.store.BookEvent(ctx, models.BookingRequest{
		UserID:     args.UserID,
		EventID:    args.EventID,
		VisitDate:  args.VisitDate,
		VisitTime:  args.VisitTime,
		TicketType: args.TicketType,
		Quantity:   args.Quantity,
	})
}

func (r *Registry) cancelBooking(ctx context.Context, args BookingIDArgs) (Cancellation, error) {
	cancelled, err := r.store.CancelBooking(ctx, args.BookingID)
	if err != nil {
		return Cancellation{}, err
	}
	return Cancellation{BookingID: args.BookingID, Cancelled: cancelled}, nil
}

func (r *Registry) getEventDetails(ctx context.Context, args EventIDArgs) (*models.Event, error) {
	return r.store.GetEvent(ctx, args.EventID)
}

func (r *Registry) getBookingDetails(ctx context.Context, args BookingIDArgs) (*models.Booking, error) {
	return r.store.GetBooking(ctx, args.BookingID)
}

func (r *Registry) getTodaysDate(_ context.Context, _ NoArgs) (Today, error) {
	return Today{Date: r.now().In(r.loc).Format(models.DateLayout)}, nil
}

func (r *Registry) sendBookingConfirmation(ctx context.Context, args SendConfirmationArgs) (Confirmation, error) {
	const op = "tools.sendBookingConfirmation"

	log := r.log.With(slog.String("op", op), slog.String("booking_id", args.BookingID))

	body, err := r.confirmationBody(ctx, args)
	if err != nil {
		log.Warn("failed to compose confirmation", sl.Err(err))
		return Confirmation{Message: confirmationFailed}, nil
	}

	receipt, err := r.sender.Send(ctx, args.PhoneNumber, body)
	if err != nil {
		log.Warn("failed to send confirmation", sl.Err(err))
		return Confirmation{Message: confirmationFailed}, nil
	}

	log.Info("confirmation sent", slog.String("provider_id", receipt.ProviderID))

	return Confirmation{Success: true, Message: confirmationSent, ProviderID: receipt.ProviderID}, nil
}

func (r *Registry) confirmationBody(ctx context.Context, args SendConfirmationArgs) (string, error) {
	booking, err := r.store.GetBooking(ctx, args.BookingID)
	if err != nil {
		return "", err
	}
	event, err := r.store.GetEvent(ctx, booking.EventID)
	if err != nil {
		return "", err
	}
	user, err := r.store.GetUser(ctx, booking.UserID)
	if err != nil {
		return "", err
	}
	return ConfirmationBody(*user, *event, *booking, args.IncludeDetails), nil
}

func (r *Registry) calculate(_ context.Context, args CalculatorArgs) (Calculation, error) {
	program, err := expr.Compile(args.Expression, expr.AsFloat64())
	if err != nil {
		return Calculation{}, &ValidationError{Msg: fmt.Sprintf("expression %q: %v", args.Expression, err)}
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		return Calculation{}, &ValidationError{Msg: fmt.Sprintf("expression %q: %v", args.Expression, err)}
	}

	result, ok := out.(float64)
	if !ok || math.IsInf(result, 0) || math.IsNaN(result) {
		return Calculation{}, &ValidationError{Msg: fmt.Sprintf("expression %q is not numeric", args.Expression)}
	}

	return Calculation{Result: result}, nil
}
