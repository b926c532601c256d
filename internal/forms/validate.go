package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateDetect checks the required fields of a detection submission.
func ValidateDetect(req recognition.DetectRequest) error {
	if req.File.Content == nil {
		return recognition.ErrMissingFile
	}
	return describe(validate.Struct(req))
}

// ValidateRegister checks the required fields of a registration submission.
// Contact must be numeric, like the number input it comes from.
func ValidateRegister(req recognition.RegisterRequest) error {
	if req.File.Content == nil {
		return recognition.ErrMissingFile
	}
	return describe(validate.Struct(req))
}

// describe turns validator errors into a short user-facing message.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "numeric":
			msgs = append(msgs, field+" must be numeric")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, ", "))
}
