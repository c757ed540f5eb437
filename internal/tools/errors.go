package tools

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/storage"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a malformed or incomplete tool payload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Msg
}

func validationError(errs validator.ValidationErrors) *ValidationError {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		switch err.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", err.Field()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("field %s must match layout %s", err.Field(), err.Param()))
		case "gt", "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid %s", err.Field(), err.Tag()))
		}
	}
	return &ValidationError{Msg: strings.Join(msgs, ", ")}
}

// recoverable reports whether err is caused by the model's request rather
// than by infrastructure, and so belongs in an observation.
func recoverable(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrCapacityExceeded) ||
		errors.Is(err, storage.ErrInvalidQuantity) ||
		errors.Is(err, agent.ErrUnknownTool)
}
