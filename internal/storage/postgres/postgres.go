package postgres

import (
	"bookingAgent/internal/config"
	"bookingAgent/internal/models"
	"bookingAgent/internal/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Storage struct {
	DB  *sql.DB
	now func() time.Time
}

func InitDB(dbCfg *config.Database) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	s := New(db)
	if err = s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func New(db *sql.DB) *Storage {
	return &Storage{DB: db, now: time.Now}
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	user.ID = uuid.NewString()

	query := `
		INSERT INTO users (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.DB.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, address
		FROM users
		WHERE id = $1`

	var user models.User
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (s *Storage) SearchUsers(ctx context.Context, name string) ([]models.User, error) {
	query := `
		SELECT id, name, email, phone, address
		FROM users
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name ASC`

	rows, err := s.DB.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err = rows.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.Address); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var user models.User
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address
		FROM users
		WHERE id = $1
		FOR UPDATE`, id).Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	upd.Apply(&user)

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2, phone = $3, address = $4
		WHERE id = $5`, user.Name, user.Email, user.Phone, user.Address, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user update: %w", err)
	}

	return &user, nil
}

func (s *Storage) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	event.ID = uuid.NewString()
	event.Booked = 0

	query := `
		INSERT INTO events (id, title, category, description, ticket_price, event_start, event_end, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.DB.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Category,
		event.Description,
		event.TicketPrice,
		nullTime(event.Start),
		nullTime(event.End),
		event.Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &event, nil
}

const eventColumns = `
		e.id, e.title, e.category, e.description, e.ticket_price, e.event_start, e.event_end, e.capacity,
		COALESCE((SELECT SUM(b.quantity) FROM bookings b WHERE b.event_id = e.id), 0)`

func (s *Storage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM events e
		WHERE e.id = $1`

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %q: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]models.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM events e
		ORDER BY e.event_start ASC NULLS FIRST, e.title ASC`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func (s *Storage) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var booked int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE event_id = $1`, eventID).Scan(&booked)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return booked, nil
}

// BookEvent checks capacity and inserts the booking in one transaction. The
// event row is locked so concurrent bookings for the same event serialize.
func (s *Storage) BookEvent(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if !models.ValidQuantity(req.Quantity) {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", storage.ErrInvalidQuantity, req.Quantity, models.MaxQuantity)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var capacity int
	var ticketPrice float64
	err = tx.QueryRowContext(ctx, `
		SELECT capacity, ticket_price
		FROM events
		WHERE id = $1
		FOR UPDATE`, req.EventID).Scan(&capacity, &ticketPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %q: %w", req.EventID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event seats info: %w", err)
	}

	var userExists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, req.UserID).Scan(&userExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !userExists {
		return nil, fmt.Errorf("user %q: %w", req.UserID, storage.ErrNotFound)
	}

	var booked int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE event_id = $1`, req.EventID).Scan(&booked)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	if req.Quantity > capacity-booked {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", storage.ErrCapacityExceeded, req.Quantity, max(capacity-booked, 0))
	}

	booking := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		EventID:    req.EventID,
		VisitDate:  req.VisitDate,
		VisitTime:  req.VisitTime,
		TicketType: req.TicketType,
		Quantity:   req.Quantity,
		TotalPrice: ticketPrice * float64(req.Quantity),
		CreatedAt:  s.now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, event_id, visit_date, visit_time, ticket_type, quantity, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		booking.ID,
		booking.UserID,
		booking.EventID,
		booking.VisitDate,
		booking.VisitTime,
		booking.TicketType,
		booking.Quantity,
		booking.TotalPrice,
		booking.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	return booking, nil
}

func (s *Storage) CancelBooking(ctx context.Context, id string) (bool, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return rowsAffected > 0, nil
}

const bookingColumns = `id, user_id, event_id, visit_date, visit_time, ticket_type, quantity, total_price, created_at`

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %q: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

func (s *Storage) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return s.queryBookings(ctx, query, userID)
}

func (s *Storage) EventBookings(ctx context.Context, eventID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE event_id = $1
		ORDER BY created_at DESC`

	return s.queryBookings(ctx, query, eventID)
}

func (s *Storage) queryBookings(ctx context.Context, query string, arg string) ([]models.Booking, error) {
	rows, err := s.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var event models.Event
	var start, end sql.NullTime
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Category,
		&event.Description,
		&event.TicketPrice,
		&start,
		&end,
		&event.Capacity,
		&event.Booked,
	)
	if err != nil {
		return nil, err
	}
	event.Start = start.Time
	event.End = end.Time
	return &event, nil
}

func scanBooking(row scanner) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.EventID,
		&booking.VisitDate,
		&booking.VisitTime,
		&booking.TicketType,
		&booking.Quantity,
		&booking.TotalPrice,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
