package models

import (
	"fmt"
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	TicketPrice float64   `json:"ticket_price"`
	Start       time.Time `json:"event_start"`
	End         time.Time `json:"event_end"`
	Capacity    int       `json:"capacity"`
	Booked      int       `json:"booked"`
}

func (e Event) Remaining() int {
	if r := e.Capacity - e.Booked; r > 0 {
		return r
	}
	return 0
}

// OpenOn reports whether the event's scheduling window covers the given day.
// An unset window means the event is always open.
func (e Event) OpenOn(day time.Time) bool {
	if e.Start.IsZero() && e.End.IsZero() {
		return true
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	if !e.End.IsZero() && e.End.Before(dayStart) {
		return false
	}
	if !e.Start.IsZero() && !e.Start.Before(dayEnd) {
		return false
	}
	return true
}

// OpenOnDate parses a YYYY-MM-DD visit date in loc and reports whether the
// event's window covers that day.
func (e Event) OpenOnDate(visitDate string, loc *time.Location) (bool, error) {
	day, err := time.ParseInLocation(DateLayout, visitDate, loc)
	if err != nil {
		return false, err
	}
	return e.OpenOn(day), nil
}

// OpenAt reports whether the event's window contains the instant.
func (e Event) OpenAt(at time.Time) bool {
	if !e.Start.IsZero() && at.Before(e.Start) {
		return false
	}
	if !e.End.IsZero() && at.After(e.End) {
		return false
	}
	return true
}

type Availability struct {
	EventID   string `json:"event_id"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

func AvailabilityOf(e Event) Availability {
	remaining := e.Remaining()
	msg := "No tickets available."
	if remaining > 0 {
		msg = fmt.Sprintf("%d tickets are available.", remaining)
	}
	return Availability{
		EventID:   e.ID,
		Capacity:  e.Capacity,
		Booked:    e.Booked,
		Remaining: remaining,
		Available: remaining > 0,
		Message:   msg,
	}
}
