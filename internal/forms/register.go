package forms

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/sirupsen/logrus"
)

// RegisterView is a snapshot of the registration form for rendering.
type RegisterView struct {
	Status  Status
	Message string
}

// HasMessage reports whether the status message should be rendered.
func (v RegisterView) HasMessage() bool { return v.Message != "" }

// Failed reports whether the message is the failure fallback.
func (v RegisterView) Failed() bool { return v.Status == StatusError }

// Submitting reports whether a submission is in flight.
func (v RegisterView) Submitting() bool { return v.Status == StatusSubmitting }

// RegisterPerson submits a reference image with name, contact, and section,
// and shows the service's message.
type RegisterPerson struct {
	registrar     Registrar
	logger        logrus.FieldLogger
	failedMessage string

	mu       sync.Mutex
	inFlight bool
	status   Status
	message  string
}

// NewRegisterPerson creates an idle registration form.
func NewRegisterPerson(registrar Registrar, logger logrus.FieldLogger) *RegisterPerson {
	return &RegisterPerson{
		registrar:     registrar,
		logger:        logger,
		failedMessage: DefaultRegisterFailedMessage,
		status:        StatusIdle,
	}
}

// SetFailedMessage overrides the message shown when a submission fails.
func (f *RegisterPerson) SetFailedMessage(msg string) {
	if msg == "" {
		return
	}
	f.mu.Lock()
	f.failedMessage = msg
	f.mu.Unlock()
}

// Submit sends one registration request. The message becomes the service's
// message on success, or the fixed failure message on any error.
func (f *RegisterPerson) Submit(ctx context.Context, file recognition.Upload, label, contact, section string) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.inFlight = true
	f.status = StatusSubmitting
	f.mu.Unlock()

	ctx, submissionID := withSubmissionID(ctx)
	result, err := f.registrar.RegisterPerson(ctx, recognition.RegisterRequest{
		File:    file,
		Label:   label,
		Contact: contact,
		Section: section,
	})
	if err == nil && result == nil {
		err = ErrEmptyResult
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"request_id": submissionID,
			"label":      label,
			"section":    section,
			"error":      err.Error(),
		}).Error("Error registering person")
		f.status = StatusError
		f.message = f.failedMessage
		return err
	}

	f.status = StatusSuccess
	f.message = result.Message

	f.logger.WithFields(logrus.Fields{
		"request_id": submissionID,
		"label":      label,
		"section":    section,
	}).Info("Person registered")

	return nil
}

// View returns a copy of the current state.
func (f *RegisterPerson) View() RegisterView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return RegisterView{Status: f.status, Message: f.message}
}

// Reset returns the form to its freshly created state.
func (f *RegisterPerson) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inFlight {
		f.status = StatusIdle
	}
	f.message = ""
}
