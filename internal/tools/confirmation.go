package tools

import (
	"bookingAgent/internal/models"
	"fmt"
	"strconv"
	"strings"
)

const (
	confirmationSent   = "Detailed confirmation SMS sent successfully"
	confirmationFailed = "Failed to send detailed confirmation SMS"
)

// Confirmation is the observation of SendBookingConfirmation. Delivery
// failures are reported here and never fail the tool call.
type Confirmation struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ProviderID string `json:"provider_id,omitempty"`
}

// ConfirmationBody composes the SMS text for a booking.
func ConfirmationBody(user models.User, event models.Event, booking models.Booking, includeDetails bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", user.Name)
	b.WriteString("Thank you for booking your event with us. Your booking has been confirmed!\n\n")

	if includeDetails {
		b.WriteString("Booking Details:\n")
		fmt.Fprintf(&b, "- Booking ID: %s\n", booking.ID)
		fmt.Fprintf(&b, "- Event: %s\n", event.Title)
		fmt.Fprintf(&b, "- Visit Date: %s\n", booking.VisitDate)
		if booking.VisitTime != "" {
			fmt.Fprintf(&b, "- Visit Time: %s\n", booking.VisitTime)
		}
		fmt.Fprintf(&b, "- Tickets: %d\n", booking.Quantity)
		fmt.Fprintf(&b, "- Total Price: Rs.%s\n\n", strconv.FormatFloat(booking.TotalPrice, 'f', -1, 64))
	}

	b.WriteString("We look forward to hosting you at our event. ")
	b.WriteString("If you have any questions, please don't hesitate to contact us.\n\n")
	b.WriteString("Best regards,\nExhibition Event Team")

	return b.String()
}
