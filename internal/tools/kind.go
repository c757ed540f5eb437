package tools

import (
	"bookingAgent/internal/agent"
	"fmt"
)

// Kind enumerates the tools the model may call.
type Kind int

const (
	KindSearchUsers Kind = iota + 1
	KindCreateUser
	KindUpdateUser
	KindGetUserBookings
	KindSearchEvents
	KindCheckEventAvailability
	KindGetEventCategories
	KindBookEvent
	KindCancelBooking
	KindGetEventDetails
	KindGetBookingDetails
	KindGetTodaysDate
	KindSendBookingConfirmation
	KindCalculator
)

// Kinds lists every tool in catalog order.
var Kinds = []Kind{
	KindSearchUsers,
	KindCreateUser,
	KindUpdateUser,
	KindGetUserBookings,
	KindSearchEvents,
	KindCheckEventAvailability,
	KindGetEventCategories,
	KindBookEvent,
	KindCancelBooking,
	KindGetEventDetails,
	KindGetBookingDetails,
	KindGetTodaysDate,
	KindSendBookingConfirmation,
	KindCalculator,
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(Kinds))
	for _, k := range Kinds {
		m[k.String()] = k
	}
	return m
}()

func ParseKind(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

func (k Kind) String() string {
	switch k {
	case KindSearchUsers:
		return "SearchUsers"
	case KindCreateUser:
		return "CreateUser"
	case KindUpdateUser:
		return "UpdateUser"
	case KindGetUserBookings:
		return "GetUserBookings"
	case KindSearchEvents:
		return "SearchEvents"
	case KindCheckEventAvailability:
		return "CheckEventAvailability"
	case KindGetEventCategories:
		return "GetEventCategories"
	case KindBookEvent:
		return "BookEvent"
	case KindCancelBooking:
		return "CancelBooking"
	case KindGetEventDetails:
		return "GetEventDetails"
	case KindGetBookingDetails:
		return "GetBookingDetails"
	case KindGetTodaysDate:
		return "GetTodaysDate"
	case KindSendBookingConfirmation:
		return "SendBookingConfirmation"
	case KindCalculator:
		return "Calculator"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) Definition() agent.ToolDefinition {
	def := agent.ToolDefinition{Name: k.String()}

	switch k {
	case KindSearchUsers:
		def.Description = "Search for users in the database by name. Input: user name or partial name."
		def.InputSchema = object(required("name"), prop("name", "string", "Full or partial user name"))
	case KindCreateUser:
		def.Description = "Register a new user. Input: name, and optionally email, phone and address."
		def.InputSchema = object(required("name"),
			prop("name", "string", "Full name"),
			prop("email", "string", "Email address"),
			prop("phone", "string", "Phone number with country code, e.g. +919812345670"),
			prop("address", "string", "Postal address"),
		)
	case KindUpdateUser:
		def.Description = "Update profile fields of an existing user. Only the given fields change."
		def.InputSchema = object(required("user_id"),
			prop("user_id", "string", "User ID"),
			prop("name", "string", "New full name"),
			prop("email", "string", "New email address"),
			prop("phone", "string", "New phone number"),
			prop("address", "string", "New postal address"),
		)
	case KindGetUserBookings:
		def.Description = "Retrieve a user's current bookings. Input: user ID."
		def.InputSchema = object(required("user_id"), prop("user_id", "string", "User ID"))
	case KindSearchEvents:
		def.Description = "Search for events that are open and not fully booked on a date, optionally at a time."
		def.InputSchema = object(required("date"),
			prop("date", "string", "Visit date, YYYY-MM-DD"),
			prop("time", "string", "Visit time, HH:MM (24h)"),
		)
	case KindCheckEventAvailability:
		def.Description = "Check how many tickets are still available for an event. Input: event ID."
		def.InputSchema = object(required("event_id"), prop("event_id", "string", "Event ID"))
	case KindGetEventCategories:
		def.Description = "List the distinct event categories (e.g. museum, exhibition, show)."
		def.InputSchema = object(nil)
	case KindBookEvent:
		def.Description = "Book tickets to an event for a user. Fails when the event does not have enough remaining capacity."
		def.InputSchema = object(required("user_id", "event_id", "visit_date", "quantity"),
			prop("user_id", "string", "User ID"),
			prop("event_id", "string", "Event ID"),
			prop("visit_date", "string", "Visit date, YYYY-MM-DD"),
			prop("visit_time", "string", "Visit time, HH:MM (24h)"),
			prop("quantity", "integer", "Number of tickets, 1 to 100000"),
			prop("ticket_type", "string", "Ticket category, e.g. adult, child"),
		)
	case KindCancelBooking:
		def.Description = "Cancel an existing booking. Input: booking ID. Cancelling an unknown booking is a no-op."
		def.InputSchema = object(required("booking_id"), prop("booking_id", "string", "Booking ID"))
	case KindGetEventDetails:
		def.Description = "Get event details by event ID."
		def.InputSchema = object(required("event_id"), prop("event_id", "string", "Event ID"))
	case KindGetBookingDetails:
		def.Description = "Get booking details by booking ID."
		def.InputSchema = object(required("booking_id"), prop("booking_id", "string", "Booking ID"))
	case KindGetTodaysDate:
		def.Description = "Get today's date."
		def.InputSchema = object(nil)
	case KindSendBookingConfirmation:
		def.Description = "Send a booking confirmation SMS. Input: booking_id, phone_number and include_details flag."
		def.InputSchema = object(required("booking_id", "phone_number"),
			prop("booking_id", "string", "Booking ID"),
			prop("phone_number", "string", "Destination phone number with country code"),
			prop("include_details", "boolean", "Include the full booking details in the message"),
		)
	case KindCalculator:
		def.Description = "Evaluate an arithmetic expression, e.g. 3 * 250."
		def.InputSchema = object(required("expression"), prop("expression", "string", "Arithmetic expression"))
	}

	return def
}

type property struct {
	name   string
	schema map[string]any
}

func prop(name, typ, description string) property {
	return property{name: name, schema: map[string]any{"type": typ, "description": description}}
}

func required(names ...string) []string {
	return names
}

func object(req []string, props ...property) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = p.schema
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(req) > 0 {
		schema["required"] = req
	}
	return schema
}
