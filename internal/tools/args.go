package tools

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type SearchUsersArgs struct {
	Name string `json:"name" validate:"required"`
}

type CreateUserArgs struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Address string `json:"address"`
}

type UpdateUserArgs struct {
	UserID  string  `json:"user_id" validate:"required"`
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,e164"`
	Address *string `json:"address"`
}

type UserIDArgs struct {
	UserID string `json:"user_id" validate:"required"`
}

type SearchEventsArgs struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"omitempty,datetime=15:04"`
}

type EventIDArgs struct {
	EventID string `json:"event_id" validate:"required"`
}

type BookEventArgs struct {
	UserID     string `json:"user_id" validate:"required"`
	EventID    string `json:"event_id" validate:"required"`
	VisitDate  string `json:"visit_date" validate:"required,datetime=2006-01-02"`
	VisitTime  string `json:"visit_time" validate:"omitempty,datetime=15:04"`
	Quantity   int    `json:"quantity" validate:"required,gt=0,max=100000"`
	TicketType string `json:"ticket_type"`
}

type BookingIDArgs struct {
	BookingID string `json:"booking_id" validate:"required"`
}

type SendConfirmationArgs struct {
	BookingID      string `json:"booking_id" validate:"required"`
	PhoneNumber    string `json:"phone_number" validate:"required"`
	IncludeDetails bool   `json:"include_details"`
}

type CalculatorArgs struct {
	Expression string `json:"expression" validate:"required"`
}

type NoArgs struct{}

// bareSetter is implemented by single-field arguments, which also accept the
// field's value as a plain string payload.
type bareSetter interface {
	setBare(v string)
}

func (a *SearchUsersArgs) setBare(v string) { a.Name = v }
func (a *UserIDArgs) setBare(v string)      { a.UserID = v }
func (a *EventIDArgs) setBare(v string)     { a.EventID = v }
func (a *BookingIDArgs) setBare(v string)   { a.BookingID = v }
func (a *CalculatorArgs) setBare(v string)  { a.Expression = v }
func (*NoArgs) setBare(string)               {}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// decode parses a tool payload into T and validates it.
func decode[T any](payload string) (T, error) {
	var args T

	trimmed := strings.TrimSpace(payload)
	switch {
	case trimmed == "" || trimmed == "null":
	case strings.HasPrefix(trimmed, "{"):
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return args, &ValidationError{Msg: "malformed input: " + err.Error()}
		}
	default:
		setter, ok := any(&args).(bareSetter)
		if !ok {
			return args, &ValidationError{Msg: "input must be a JSON object"}
		}
		if strings.HasPrefix(trimmed, `"`) {
			var s string
			if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
				return args, &ValidationError{Msg: "malformed input: " + err.Error()}
			}
			trimmed = strings.TrimSpace(s)
		}
		setter.setBare(trimmed)
	}

	if err := validate.Struct(args); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return args, validationError(verrs)
		}
		return args, &ValidationError{Msg: err.Error()}
	}

	return args, nil
}
