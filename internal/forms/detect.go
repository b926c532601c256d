package forms

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/sirupsen/logrus"
)

// DetectView is a snapshot of the detection form for rendering.
type DetectView struct {
	Status   Status
	ImageSrc string
	Names    []string
	Error    string
}

// HasImage reports whether a processed image should be rendered.
func (v DetectView) HasImage() bool { return v.ImageSrc != "" }

// HasNames reports whether the identified names list should be rendered.
func (v DetectView) HasNames() bool { return len(v.Names) > 0 }

// Submitting reports whether a submission is in flight.
func (v DetectView) Submitting() bool { return v.Status == StatusSubmitting }

// DetectAndRecognize submits an image and section to the detection service and
// keeps the latest processed image and identified names.
type DetectAndRecognize struct {
	detector      Detector
	logger        logrus.FieldLogger
	failedMessage string

	mu       sync.Mutex
	inFlight bool
	status   Status
	imageSrc string
	names    []string
	errMsg   string
	result   *recognition.DetectionResult
}

// NewDetectAndRecognize creates an idle detection form.
func NewDetectAndRecognize(detector Detector, logger logrus.FieldLogger) *DetectAndRecognize {
	return &DetectAndRecognize{
		detector:      detector,
		logger:        logger,
		failedMessage: DefaultDetectFailedMessage,
		status:        StatusIdle,
		names:         []string{},
	}
}

// SetFailedMessage overrides the message shown when a submission fails.
func (f *DetectAndRecognize) SetFailedMessage(msg string) {
	if msg == "" {
		return
	}
	f.mu.Lock()
	f.failedMessage = msg
	f.mu.Unlock()
}

// Submit sends one detection request. On success the image and names are
// replaced; on failure they are left as they were and an error message is set.
// The returned error is informational; state has already been updated.
func (f *DetectAndRecognize) Submit(ctx context.Context, file recognition.Upload, section string) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.inFlight = true
	f.status = StatusSubmitting
	f.mu.Unlock()

	ctx, submissionID := withSubmissionID(ctx)
	result, err := f.detector.DetectAndRecognize(ctx, recognition.DetectRequest{File: file, Section: section})
	if err == nil && result == nil {
		err = ErrEmptyResult
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"request_id": submissionID,
			"section":    section,
			"file":       file.Filename,
			"error":      err.Error(),
		}).Error("Error detecting faces")
		f.status = StatusError
		f.errMsg = f.failedMessage
		return err
	}

	f.status = StatusSuccess
	f.imageSrc = result.ImageDataURI()
	f.names = result.Names()
	f.errMsg = ""
	f.result = result

	f.logger.WithFields(logrus.Fields{
		"request_id": submissionID,
		"section":    section,
		"identified": len(f.names),
	}).Debug("Detection complete")

	return nil
}

// View returns a copy of the current state.
func (f *DetectAndRecognize) View() DetectView {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, len(f.names))
	copy(names, f.names)
	return DetectView{
		Status:   f.status,
		ImageSrc: f.imageSrc,
		Names:    names,
		Error:    f.errMsg,
	}
}

// Result returns the last successful detection result, or nil.
func (f *DetectAndRecognize) Result() *recognition.DetectionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Reset returns the form to its freshly created state.
// A submission in flight still completes and applies its result.
func (f *DetectAndRecognize) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inFlight {
		f.status = StatusIdle
	}
	f.imageSrc = ""
	f.names = []string{}
	f.errMsg = ""
	f.result = nil
}
