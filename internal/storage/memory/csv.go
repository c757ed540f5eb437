package memory

import (
	"bookingAgent/internal/models"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	usersFile    = "users.csv"
	eventsFile   = "events.csv"
	bookingsFile = "bookings.csv"
)

var (
	userHeader    = []string{"user_id", "name", "email", "phone", "address"}
	eventHeader   = []string{"id", "title", "category", "description", "ticket_price", "event_start", "event_end", "capacity"}
	bookingHeader = []string{"booking_id", "user_id", "event_id", "visit_date", "visit_time", "ticket_type", "quantity", "total_price", "created_at"}
)

// record maps a CSV row onto its header so column order in the file is free.
type record map[string]string

func (s *Storage) load() error {
	users, err := readRecords(filepath.Join(s.dir, usersFile))
	if err != nil {
		return err
	}
	for _, r := range users {
		s.putUser(models.User{
			ID:      r["user_id"],
			Name:    r["name"],
			Email:   r["email"],
			Phone:   r["phone"],
			Address: r["address"],
		})
	}

	events, err := readRecords(filepath.Join(s.dir, eventsFile))
	if err != nil {
		return err
	}
	for i, r := range events {
		event, err := parseEvent(r)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", eventsFile, i+2, err)
		}
		s.putEvent(event)
	}

	bookings, err := readRecords(filepath.Join(s.dir, bookingsFile))
	if err != nil {
		return err
	}
	for i, r := range bookings {
		booking, err := parseBooking(r)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", bookingsFile, i+2, err)
		}
		s.putBooking(booking)
	}

	return nil
}

func readRecords(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var records []record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rec := make(record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseEvent(r record) (models.Event, error) {
	event := models.Event{
		ID:          r["id"],
		Title:       r["title"],
		Category:    r["category"],
		Description: r["description"],
	}

	var err error
	if event.TicketPrice, err = parseFloat(r["ticket_price"]); err != nil {
		return event, fmt.Errorf("ticket_price: %w", err)
	}
	if event.Capacity, err = parseInt(r["capacity"]); err != nil {
		return event, fmt.Errorf("capacity: %w", err)
	}
	if event.Start, err = parseTime(r["event_start"]); err != nil {
		return event, fmt.Errorf("event_start: %w", err)
	}
	if event.End, err = parseTime(r["event_end"]); err != nil {
		return event, fmt.Errorf("event_end: %w", err)
	}

	return event, nil
}

func parseBooking(r record) (models.Booking, error) {
	booking := models.Booking{
		ID:         r["booking_id"],
		UserID:     r["user_id"],
		EventID:    r["event_id"],
		VisitDate:  r["visit_date"],
		VisitTime:  r["visit_time"],
		TicketType: r["ticket_type"],
	}

	var err error
	if booking.Quantity, err = parseInt(r["quantity"]); err != nil {
		return booking, fmt.Errorf("quantity: %w", err)
	}
	if booking.TotalPrice, err = parseFloat(r["total_price"]); err != nil {
		return booking, fmt.Errorf("total_price: %w", err)
	}
	if booking.CreatedAt, err = parseTime(r["created_at"]); err != nil {
		return booking, fmt.Errorf("created_at: %w", err)
	}

	return booking, nil
}

func parseInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func parseFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(models.DateLayout, v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (s *Storage) flushUsers() error {
	if s.dir == "" {
		return nil
	}
	rows := make([][]string, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := s.users[id]
		rows = append(rows, []string{u.ID, u.Name, u.Email, u.Phone, u.Address})
	}
	return writeRecords(filepath.Join(s.dir, usersFile), userHeader, rows)
}

func (s *Storage) flushEvents() error {
	if s.dir == "" {
		return nil
	}
	rows := make([][]string, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		e := s.events[id]
		rows = append(rows, []string{
			e.ID,
			e.Title,
			e.Category,
			e.Description,
			strconv.FormatFloat(e.TicketPrice, 'f', -1, 64),
			formatTime(e.Start),
			formatTime(e.End),
			strconv.Itoa(e.Capacity),
		})
	}
	return writeRecords(filepath.Join(s.dir, eventsFile), eventHeader, rows)
}

func (s *Storage) flushBookings() error {
	if s.dir == "" {
		return nil
	}
	rows := make([][]string, 0, len(s.bookingOrder))
	for _, id := range s.bookingOrder {
		b := s.bookings[id]
		rows = append(rows, []string{
			b.ID,
			b.UserID,
			b.EventID,
			b.VisitDate,
			b.VisitTime,
			b.TicketType,
			strconv.Itoa(b.Quantity),
			strconv.FormatFloat(b.TotalPrice, 'f', -1, 64),
			formatTime(b.CreatedAt),
		})
	}
	return writeRecords(filepath.Join(s.dir, bookingsFile), bookingHeader, rows)
}

// writeRecords replaces path atomically via a temp file in the same directory.
func writeRecords(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err == nil {
		err = w.WriteAll(rows)
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
