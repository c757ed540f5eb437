package tools

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/lib/logger/handlers/slogdiscard"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/models"
	"bookingAgent/internal/sms"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

type Store interface {
	SearchUsers(ctx context.Context, name string) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	UserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	BookEvent(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) (bool, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Sender
type Sender interface {
	Send(ctx context.Context, to, body string) (sms.Receipt, error)
}

// Registry is the fixed tool catalog bound to a store and a notifier.
type Registry struct {
	store  Store
	sender Sender
	now    func() time.Time
	loc    *time.Location
	log    *slog.Logger
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLocation sets the zone used for "today" and for interpreting visit
// dates and times.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

func New(store Store, sender Sender, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		sender: sender,
		now:    time.Now,
		loc:    time.Local,
		log:    slogdiscard.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Definitions() []agent.ToolDefinition {
	defs := make([]agent.ToolDefinition, 0, len(Kinds))
	for _, k := range Kinds {
		defs = append(defs, k.Definition())
	}
	return defs
}

// Execute runs one call. Problems caused by the call itself come back as an
// error observation; a returned error means the backing infrastructure failed.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	const op = "tools.Registry.Execute"

	log := r.log.With(
		slog.String("op", op),
		slog.String("tool", call.Name),
		slog.String("call_id", call.ID),
	)

	result := agent.ToolResult{CallID: call.ID, Name: call.Name}

	out, err := r.dispatch(ctx, call)
	if err != nil {
		if !recoverable(err) {
			log.Error("tool failed", sl.Err(err))
			return agent.ToolResult{}, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("tool returned error observation", sl.Err(err))
		result.Content = agent.ErrorContent(err)
		result.IsError = true
		return result, nil
	}

	b, err := json.Marshal(out)
	if err != nil {
		return agent.ToolResult{}, fmt.Errorf("%s: encode result: %w", op, err)
	}
	result.Content = string(b)

	return result, nil
}

func (r *Registry) dispatch(ctx context.Context, call agent.ToolCall) (any, error) {
	kind, ok := ParseKind(call.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", agent.ErrUnknownTool, call.Name)
	}

	payload := call.Arguments

	switch kind {
	case KindSearchUsers:
		return run(ctx, payload, r.searchUsers)
	case KindCreateUser:
		return run(ctx, payload, r.createUser)
	case KindUpdateUser:
		return run(ctx, payload, r.updateUser)
	case KindGetUserBookings:
		return run(ctx, payload, r.getUserBookings)
	case KindSearchEvents:
		return run(ctx, payload, r.searchEvents)
	case KindCheckEventAvailability:
		return run(ctx, payload, r.checkEventAvailability)
	case KindGetEventCategories:
		return run(ctx, payload, r.getEventCategories)
	case KindBookEvent:
		return run(ctx, payload, r.bookEvent)
	case KindCancelBooking:
		return run(ctx, payload, r.cancelBooking)
	case KindGetEventDetails:
		return run(ctx, payload, r.getEventDetails)
	case KindGetBookingDetails:
		return run(ctx, payload, r.getBookingDetails)
	case KindGetTodaysDate:
		return run(ctx, payload, r.getTodaysDate)
	case KindSendBookingConfirmation:
		return run(ctx, payload, r.sendBookingConfirmation)
	case KindCalculator:
		return run(ctx, payload, r.calculate)
	default:
		return nil, fmt.Errorf("%w: %q", agent.ErrUnknownTool, call.Name)
	}
}

func run[A, R any](ctx context.Context, payload string, handler func(context.Context, A) (R, error)) (any, error) {
	args, err := decode[A](payload)
	if err != nil {
		return nil, err
	}
	out, err := handler(ctx, args)
	if err != nil {
		return nil, err
	}
	return out, nil
}
