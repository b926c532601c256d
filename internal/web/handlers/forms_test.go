package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/recognition"
)

func TestFormsHandler_DetectPage_Fresh(t *testing.T) {
	h := testHandler(t)
	session := testSession(&stubService{})

	recorder := httptest.NewRecorder()
	h.DetectPage(recorder, withSession(httptest.NewRequest("GET", "/detect", nil), session))

	assertStatusCode(t, recorder, http.StatusOK)
	body := recorder.Body.String()
	if !strings.Contains(body, "<h2>Detect and Recognize</h2>") {
		t.Error("expected detection heading")
	}
	if strings.Contains(body, "<img") {
		t.Error("expected no processed image on a fresh form")
	}
	if strings.Contains(body, "identified-names") {
		t.Error("expected no names list on a fresh form")
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("expected HTML content type, got '%s'", ct)
	}
}

func TestFormsHandler_Detect_Success(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{detectResult: &recognition.DetectionResult{
		ImageBase64:     "abcd",
		IdentifiedNames: []string{"Alice", "Bob"},
	}}
	session := testSession(svc)

	req := multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("fake image data"))
	recorder := httptest.NewRecorder()
	h.Detect(recorder, withSession(req, session))

	assertStatusCode(t, recorder, http.StatusSeeOther)
	if loc := recorder.Header().Get("Location"); loc != "/detect?section=A" {
		t.Errorf("expected redirect to '/detect?section=A', got '%s'", loc)
	}

	if len(svc.detectCalls) != 1 {
		t.Fatalf("expected exactly 1 detection request, got %d", len(svc.detectCalls))
	}
	if svc.detectCalls[0].Section != "A" || svc.detectCalls[0].File.Filename != "class.jpg" {
		t.Errorf("unexpected request %+v", svc.detectCalls[0])
	}

	page := httptest.NewRecorder()
	h.DetectPage(page, withSession(httptest.NewRequest("GET", "/detect?section=A", nil), session))
	body := page.Body.String()

	if !strings.Contains(body, `src="data:image/jpeg;base64,abcd"`) {
		t.Errorf("expected processed image data URI in page\nBody: %s", body)
	}
	alice := strings.Index(body, "<li>Alice</li>")
	bob := strings.Index(body, "<li>Bob</li>")
	if alice < 0 || bob < 0 || alice > bob {
		t.Errorf("expected names Alice then Bob in page\nBody: %s", body)
	}
	if !strings.Contains(body, `value="A"`) {
		t.Error("expected section to be prefilled")
	}
}

func TestFormsHandler_Detect_NoNames(t *testing.T) {
	h := testHandler(t)
	session := testSession(&stubService{detectResult: &recognition.DetectionResult{ImageBase64: "abcd"}})

	req := multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("img"))
	h.Detect(httptest.NewRecorder(), withSession(req, session))

	page := httptest.NewRecorder()
	h.DetectPage(page, withSession(httptest.NewRequest("GET", "/detect", nil), session))
	body := page.Body.String()

	if !strings.Contains(body, "<img") {
		t.Error("expected processed image")
	}
	if strings.Contains(body, "identified-names") {
		t.Error("expected no names list when none were returned")
	}
}

func TestFormsHandler_Detect_FailureKeepsPreviousResult(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{detectResult: &recognition.DetectionResult{
		ImageBase64:     "abcd",
		IdentifiedNames: []string{"Alice"},
	}}
	session := testSession(svc)

	req := multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("img"))
	h.Detect(httptest.NewRecorder(), withSession(req, session))

	svc.detectResult = nil
	svc.err = errors.New("could not send request: connection refused")

	req = multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("img"))
	recorder := httptest.NewRecorder()
	h.Detect(recorder, withSession(req, session))

	assertStatusCode(t, recorder, http.StatusSeeOther)

	page := httptest.NewRecorder()
	h.DetectPage(page, withSession(httptest.NewRequest("GET", "/detect", nil), session))
	body := page.Body.String()

	if !strings.Contains(body, `src="data:image/jpeg;base64,abcd"`) {
		t.Error("expected previous image to stay rendered")
	}
	if !strings.Contains(body, "<li>Alice</li>") {
		t.Error("expected previous names to stay rendered")
	}
	if !strings.Contains(body, "Failed to detect faces.") {
		t.Error("expected visible error message")
	}
}

func TestFormsHandler_Detect_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		file     []byte
		expected string
	}{
		{"missing section", map[string]string{}, []byte("img"), "section is required"},
		{"missing file", map[string]string{"section": "A"}, nil, "image file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(t)
			svc := &stubService{}
			session := testSession(svc)

			recorder := httptest.NewRecorder()
			h.Detect(recorder, withSession(multipartRequest(t, "/detect", tt.fields, tt.file), session))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			if !strings.Contains(recorder.Body.String(), tt.expected) {
				t.Errorf("expected '%s' in page\nBody: %s", tt.expected, recorder.Body.String())
			}
			if len(svc.detectCalls) != 0 {
				t.Errorf("expected no request, got %d", len(svc.detectCalls))
			}
		})
	}
}

func TestFormsHandler_Detect_InvalidMultipart(t *testing.T) {
	h := testHandler(t)
	session := testSession(&stubService{})

	req := httptest.NewRequest("POST", "/detect", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	recorder := httptest.NewRecorder()
	h.Detect(recorder, withSession(req, session))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	if !strings.Contains(recorder.Body.String(), errParseMultipart) {
		t.Error("expected multipart parse error in page")
	}
}

func TestFormsHandler_Detect_InFlight(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{
		detectResult:  &recognition.DetectionResult{ImageBase64: "abcd"},
		detectStarted: make(chan struct{}, 1),
		detectRelease: make(chan struct{}),
	}
	session := testSession(svc)

	done := make(chan error, 1)
	go func() {
		done <- session.Detect.Submit(context.Background(), recognition.Upload{Filename: "a.jpg", Content: strings.NewReader("img")}, "A")
	}()
	<-svc.detectStarted

	recorder := httptest.NewRecorder()
	h.Detect(recorder, withSession(multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("img")), session))

	assertStatusCode(t, recorder, http.StatusConflict)
	if !strings.Contains(recorder.Body.String(), "A submission is already in progress.") {
		t.Error("expected in-flight message in page")
	}
	if !strings.Contains(recorder.Body.String(), "disabled") {
		t.Error("expected submit button to be disabled while in flight")
	}

	close(svc.detectRelease)
	if err := <-done; err != nil {
		t.Fatalf("in-flight Submit failed: %v", err)
	}

	svc.mu.Lock()
	calls := len(svc.detectCalls)
	svc.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected exactly 1 detection request, got %d", calls)
	}
}

func TestFormsHandler_Register_Success(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{registerResult: &recognition.RegistrationResult{Message: "Registered"}}
	session := testSession(svc)

	req := multipartRequest(t, "/register", map[string]string{
		"label":   "Jane",
		"Contact": "5551234",
		"section": "A",
	}, []byte("fake image data"))
	recorder := httptest.NewRecorder()
	h.Register(recorder, withSession(req, session))

	assertStatusCode(t, recorder, http.StatusSeeOther)

	if len(svc.registerCalls) != 1 {
		t.Fatalf("expected exactly 1 registration request, got %d", len(svc.registerCalls))
	}
	call := svc.registerCalls[0]
	if call.Label != "Jane" || call.Contact != "5551234" || call.Section != "A" || call.File.Content == nil {
		t.Errorf("unexpected request %+v", call)
	}

	page := httptest.NewRecorder()
	h.RegisterPage(page, withSession(httptest.NewRequest("GET", "/register", nil), session))
	body := page.Body.String()

	if !strings.Contains(body, `<p id="status" class="success">Registered</p>`) {
		t.Errorf("expected status message 'Registered'\nBody: %s", body)
	}
}

func TestFormsHandler_Register_Failure(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{err: &recognition.StatusError{StatusCode: 500, Body: "boom"}}
	session := testSession(svc)

	req := multipartRequest(t, "/register", map[string]string{
		"label":   "Jane",
		"Contact": "5551234",
		"section": "A",
	}, []byte("img"))
	h.Register(httptest.NewRecorder(), withSession(req, session))

	page := httptest.NewRecorder()
	h.RegisterPage(page, withSession(httptest.NewRequest("GET", "/register", nil), session))

	if !strings.Contains(page.Body.String(), `<p id="status" class="error">Failed to register person.</p>`) {
		t.Errorf("expected failure message\nBody: %s", page.Body.String())
	}
}

func TestFormsHandler_Register_NonNumericContact(t *testing.T) {
	h := testHandler(t)
	svc := &stubService{}
	session := testSession(svc)

	req := multipartRequest(t, "/register", map[string]string{
		"label":   "Jane",
		"Contact": "call me",
		"section": "A",
	}, []byte("img"))
	recorder := httptest.NewRecorder()
	h.Register(recorder, withSession(req, session))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	if !strings.Contains(recorder.Body.String(), "contact must be numeric") {
		t.Error("expected numeric contact error in page")
	}
	if len(svc.registerCalls) != 0 {
		t.Errorf("expected no request, got %d", len(svc.registerCalls))
	}
}

func TestFormsHandler_ClearDetect(t *testing.T) {
	h := testHandler(t)
	session := testSession(&stubService{detectResult: &recognition.DetectionResult{
		ImageBase64:     "abcd",
		IdentifiedNames: []string{"Alice"},
	}})

	req := multipartRequest(t, "/detect", map[string]string{"section": "A"}, []byte("img"))
	h.Detect(httptest.NewRecorder(), withSession(req, session))

	page := httptest.NewRecorder()
	h.DetectPage(page, withSession(httptest.NewRequest("GET", "/detect", nil), session))
	if !strings.Contains(page.Body.String(), `action="/detect/clear"`) {
		t.Fatalf("expected clear action after a result\nBody: %s", page.Body.String())
	}

	recorder := httptest.NewRecorder()
	h.ClearDetect(recorder, withSession(httptest.NewRequest("POST", "/detect/clear", nil), session))

	assertStatusCode(t, recorder, http.StatusSeeOther)
	if loc := recorder.Header().Get("Location"); loc != "/detect" {
		t.Errorf("expected redirect to '/detect', got '%s'", loc)
	}

	page = httptest.NewRecorder()
	h.DetectPage(page, withSession(httptest.NewRequest("GET", "/detect", nil), session))
	body := page.Body.String()
	if strings.Contains(body, "<img") || strings.Contains(body, "identified-names") {
		t.Errorf("expected cleared page\nBody: %s", body)
	}
	if strings.Contains(body, `action="/detect/clear"`) {
		t.Error("expected no clear action on a cleared form")
	}
}

func TestFormsHandler_ClearRegister(t *testing.T) {
	h := testHandler(t)
	session := testSession(&stubService{registerResult: &recognition.RegistrationResult{Message: "Registered"}})

	req := multipartRequest(t, "/register", map[string]string{
		"label":   "Jane",
		"Contact": "5551234",
		"section": "A",
	}, []byte("img"))
	h.Register(httptest.NewRecorder(), withSession(req, session))

	recorder := httptest.NewRecorder()
	h.ClearRegister(recorder, withSession(httptest.NewRequest("POST", "/register/clear", nil), session))

	assertStatusCode(t, recorder, http.StatusSeeOther)
	if loc := recorder.Header().Get("Location"); loc != "/register" {
		t.Errorf("expected redirect to '/register', got '%s'", loc)
	}

	page := httptest.NewRecorder()
	h.RegisterPage(page, withSession(httptest.NewRequest("GET", "/register", nil), session))
	if strings.Contains(page.Body.String(), `id="status"`) {
		t.Errorf("expected no status message after clear\nBody: %s", page.Body.String())
	}
}

func TestFormsHandler_NoSession(t *testing.T) {
	h := testHandler(t)

	recorder := httptest.NewRecorder()
	h.DetectPage(recorder, httptest.NewRequest("GET", "/detect", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "session not available")
}

func TestFormsHandler_Index(t *testing.T) {
	h := testHandler(t)

	recorder := httptest.NewRecorder()
	h.Index(recorder, httptest.NewRequest("GET", "/", nil))

	assertStatusCode(t, recorder, http.StatusFound)
	if loc := recorder.Header().Get("Location"); loc != "/detect" {
		t.Errorf("expected redirect to '/detect', got '%s'", loc)
	}
}
