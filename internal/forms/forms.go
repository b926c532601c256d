// Package forms holds the per-instance state of the detection and registration
// forms. Each form owns its state, allows one submission in flight at a time,
// and moves through idle -> submitting -> success|error.
package forms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// Status is the lifecycle state of a form.
type Status string

// Status constants define the lifecycle states of a form.
const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// User-visible fallback messages.
const (
	DefaultDetectFailedMessage   = "Failed to detect faces."
	DefaultRegisterFailedMessage = "Failed to register person."
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission of the same form has not completed. No request is issued.
var ErrSubmitInFlight = errors.New("submission already in progress")

// ErrEmptyResult is returned when the service call succeeds without a result.
var ErrEmptyResult = errors.New("recognition service returned no result")

// Detector is the recognition service operation used by DetectAndRecognize.
type Detector interface {
	DetectAndRecognize(ctx context.Context, req recognition.DetectRequest) (*recognition.DetectionResult, error)
}

// Registrar is the recognition service operation used by RegisterPerson.
type Registrar interface {
	RegisterPerson(ctx context.Context, req recognition.RegisterRequest) (*recognition.RegistrationResult, error)
}

// withSubmissionID tags ctx with a fresh correlation ID and returns both.
func withSubmissionID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return recognition.WithRequestID(ctx, id), id
}
