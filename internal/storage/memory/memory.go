// Package memory is a process-local booking store. It optionally mirrors its
// records into flat CSV files so state survives restarts.
package memory

import (
	"bookingAgent/internal/models"
	"bookingAgent/internal/storage"
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Storage struct {
	// mu guards every map below; BookEvent holds it across the capacity check
	// and the insert.
	mu       sync.RWMutex
	users    map[string]models.User
	events   map[string]models.Event
	bookings map[string]models.Booking
	// order keeps insertion order so listings are stable.
	userOrder    []string
	eventOrder   []string
	bookingOrder []string

	dir   string
	now   func() time.Time
	newID func() string
}

type Option func(*Storage)

// WithCSVDir loads users.csv, events.csv and bookings.csv from dir and rewrites
// the affected file after every mutation.
func WithCSVDir(dir string) Option {
	return func(s *Storage) {
		s.dir = dir
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Storage) {
		s.newID = newID
	}
}

func New(opts ...Option) (*Storage, error) {
	s := &Storage{
		users:    make(map[string]models.User),
		events:   make(map[string]models.Event),
		bookings: make(map[string]models.Booking),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create csv dir: %w", err)
		}
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.newID()
	s.putUser(user)

	if err := s.flushUsers(); err != nil {
		delete(s.users, user.ID)
		s.userOrder = without(s.userOrder, user.ID)
		return nil, err
	}

	return &user, nil
}

func (s *Storage) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}

	return &user, nil
}

func (s *Storage) SearchUsers(_ context.Context, name string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(name)
	users := []models.User{}
	for _, id := range s.userOrder {
		user := s.users[id]
		if strings.Contains(strings.ToLower(user.Name), needle) {
			users = append(users, user)
		}
	}

	return users, nil
}

func (s *Storage) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}

	prev := user
	upd.Apply(&user)
	s.users[id] = user

	if err := s.flushUsers(); err != nil {
		s.users[id] = prev
		return nil, err
	}

	return &user, nil
}

func (s *Storage) CreateEvent(_ context.Context, event models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = s.newID()
	event.Booked = 0
	s.putEvent(event)

	if err := s.flushEvents(); err != nil {
		delete(s.events, event.ID)
		s.eventOrder = without(s.eventOrder, event.ID)
		return nil, err
	}

	return &event, nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", id, storage.ErrNotFound)
	}
	event.Booked = s.bookedLocked(id)

	return &event, nil
}

func (s *Storage) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.Event, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		event := s.events[id]
		event.Booked = s.bookedLocked(id)
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

func (s *Storage) CountByEvent(_ context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bookedLocked(eventID), nil
}

func (s *Storage) BookEvent(_ context.Context, req models.BookingRequest) (*models.Booking, error) {
	if !models.ValidQuantity(req.Quantity) {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", storage.ErrInvalidQuantity, req.Quantity, models.MaxQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[req.EventID]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", req.EventID, storage.ErrNotFound)
	}
	if _, ok = s.users[req.UserID]; !ok {
		return nil, fmt.Errorf("user %q: %w", req.UserID, storage.ErrNotFound)
	}

	booked := s.bookedLocked(req.EventID)
	if req.Quantity > event.Capacity-booked {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", storage.ErrCapacityExceeded, req.Quantity, max(event.Capacity-booked, 0))
	}

	booking := models.Booking{
		ID:         s.newID(),
		UserID:     req.UserID,
		EventID:    req.EventID,
		VisitDate:  req.VisitDate,
		VisitTime:  req.VisitTime,
		TicketType: req.TicketType,
		Quantity:   req.Quantity,
		TotalPrice: event.TicketPrice * float64(req.Quantity),
		CreatedAt:  s.now().UTC(),
	}
	s.putBooking(booking)

	if err := s.flushBookings(); err != nil {
		s.removeBooking(booking.ID)
		return nil, err
	}

	return &booking, nil
}

func (s *Storage) CancelBooking(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return false, nil
	}

	pos := s.removeBooking(id)

	if err := s.flushBookings(); err != nil {
		s.bookings[id] = booking
		s.bookingOrder = slices.Insert(s.bookingOrder, pos, id)
		return false, err
	}

	return true, nil
}

func (s *Storage) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %q: %w", id, storage.ErrNotFound)
	}

	return &booking, nil
}

func (s *Storage) UserBookings(_ context.Context, userID string) ([]models.Booking, error) {
	return s.filterBookings(func(b models.Booking) bool { return b.UserID == userID }), nil
}

func (s *Storage) EventBookings(_ context.Context, eventID string) ([]models.Booking, error) {
	return s.filterBookings(func(b models.Booking) bool { return b.EventID == eventID }), nil
}

func (s *Storage) filterBookings(keep func(models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := []models.Booking{}
	for _, id := range s.bookingOrder {
		if b := s.bookings[id]; keep(b) {
			bookings = append(bookings, b)
		}
	}

	return bookings
}

func (s *Storage) bookedLocked(eventID string) int {
	total := 0
	for _, b := range s.bookings {
		if b.EventID == eventID {
			total += b.Quantity
		}
	}
	return total
}

func (s *Storage) putUser(u models.User) {
	if _, ok := s.users[u.ID]; !ok {
		s.userOrder = append(s.userOrder, u.ID)
	}
	s.users[u.ID] = u
}

func (s *Storage) putEvent(e models.Event) {
	if _, ok := s.events[e.ID]; !ok {
		s.eventOrder = append(s.eventOrder, e.ID)
	}
	s.events[e.ID] = e
}

func (s *Storage) putBooking(b models.Booking) {
	if _, ok := s.bookings[b.ID]; !ok {
		s.bookingOrder = append(s.bookingOrder, b.ID)
	}
	s.bookings[b.ID] = b
}

// removeBooking drops the booking and returns the position it held in
// bookingOrder.
func (s *Storage) removeBooking(id string) int {
	delete(s.bookings, id)
	pos := slices.Index(s.bookingOrder, id)
	if pos >= 0 {
		s.bookingOrder = slices.Delete(s.bookingOrder, pos, pos+1)
	}
	return pos
}

func without(order []string, id string) []string {
	if i := slices.Index(order, id); i >= 0 {
		return slices.Delete(order, i, i+1)
	}
	return order
}
