package models

import "time"

const DateLayout = "2006-01-02"

// MaxQuantity caps the tickets in one booking. It keeps quantities inside the
// range of the INTEGER quantity column.
const MaxQuantity = 100000

type Booking struct {
	ID         string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	VisitDate  string    `json:"visit_date"`
	VisitTime  string    `json:"visit_time,omitempty"`
	TicketType string    `json:"ticket_type,omitempty"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingRequest struct {
	UserID     string `json:"user_id"`
	EventID    string `json:"event_id"`
	VisitDate  string `json:"visit_date"`
	VisitTime  string `json:"visit_time,omitempty"`
	TicketType string `json:"ticket_type,omitempty"`
	Quantity   int    `json:"quantity"`
}

// ValidQuantity reports whether q tickets can be requested in one booking.
func ValidQuantity(q int) bool {
	return q > 0 && q <= MaxQuantity
}
