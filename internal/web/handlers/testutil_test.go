package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/forms"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Recognition: config.RecognitionConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Defaults: config.LoadDefaults(),
	}
}

// stubService implements both recognition operations with canned answers.
type stubService struct {
	mu             sync.Mutex
	detectCalls    []recognition.DetectRequest
	registerCalls  []recognition.RegisterRequest
	detectResult   *recognition.DetectionResult
	registerResult *recognition.RegistrationResult
	err            error
	detectStarted  chan struct{}
	detectRelease  chan struct{}
}

func (s *stubService) DetectAndRecognize(ctx context.Context, req recognition.DetectRequest) (*recognition.DetectionResult, error) {
	s.mu.Lock()
	s.detectCalls = append(s.detectCalls, req)
	s.mu.Unlock()
	if s.detectStarted != nil {
		s.detectStarted <- struct{}{}
	}
	if s.detectRelease != nil {
		<-s.detectRelease
	}
	return s.detectResult, s.err
}

func (s *stubService) RegisterPerson(ctx context.Context, req recognition.RegisterRequest) (*recognition.RegistrationResult, error) {
	s.mu.Lock()
	s.registerCalls = append(s.registerCalls, req)
	s.mu.Unlock()
	return s.registerResult, s.err
}

// testSession builds a session whose forms talk to svc.
func testSession(svc *stubService) *middleware.Session {
	return &middleware.Session{
		ID:       "test-session",
		Detect:   forms.NewDetectAndRecognize(svc, logging.Discard()),
		Register: forms.NewRegisterPerson(svc, logging.Discard()),
	}
}

// testHandler creates a forms handler with the embedded templates.
func testHandler(t *testing.T) *FormsHandler {
	t.Helper()
	pages, err := static.Pages()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	return NewFormsHandler(testConfig(), pages, logging.Discard())
}

// multipartRequest builds a POST with the given text fields and, when
// fileData is non-nil, a "file" part.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileData []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if fileData != nil {
		part, err := writer.CreateFormFile("file", "class.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(fileData)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// withSession attaches session to the request context.
func withSession(r *http.Request, session *middleware.Session) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), session))
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
