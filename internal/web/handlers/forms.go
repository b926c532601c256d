package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/forms"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
	"github.com/sirupsen/logrus"
)

const errParseMultipart = "failed to parse multipart form"

// FormsHandler serves the detection and registration pages.
type FormsHandler struct {
	pages    *template.Template
	messages config.MessagesConfig
	logger   logrus.FieldLogger
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(cfg *config.Config, pages *template.Template, logger logrus.FieldLogger) *FormsHandler {
	messages := cfg.Defaults.Messages
	if messages.InFlight == "" {
		messages.InFlight = forms.ErrSubmitInFlight.Error()
	}
	return &FormsHandler{
		pages:    pages,
		messages: messages,
		logger:   logger,
	}
}

// pageData is what the page templates render.
type pageData struct {
	Title    string
	Active   string
	Section  string
	Notice   string
	Detect   forms.DetectView
	Register forms.RegisterView
}

// render executes a page template with the given status.
func (h *FormsHandler) render(w http.ResponseWriter, status int, page string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, page, data); err != nil {
		h.logger.WithError(err).WithField("page", page).Error("Failed to render page")
	}
}

// sessionOrError returns the request's session, answering 500 when the
// session middleware did not run.
func sessionOrError(w http.ResponseWriter, r *http.Request) *middleware.Session {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusInternalServerError, "session not available")
	}
	return session
}

// readUpload parses the multipart body and returns the uploaded image, if any.
// The caller must close the returned closer.
func readUpload(w http.ResponseWriter, r *http.Request) (recognition.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return recognition.Upload{}, func() {}, err
	}

	cleanup := func() { r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("file")
	if err != nil {
		// A missing file is reported by validation, not here
		return recognition.Upload{}, cleanup, nil
	}
	return recognition.Upload{Filename: header.Filename, Content: file}, func() {
		file.Close()
		cleanup()
	}, nil
}

func (h *FormsHandler) detectPage(session *middleware.Session, section, notice string) pageData {
	return pageData{
		Title:   "Detect and Recognize",
		Active:  "detect",
		Section: section,
		Notice:  notice,
		Detect:  session.Detect.View(),
	}
}

func (h *FormsHandler) registerPage(session *middleware.Session, section, notice string) pageData {
	return pageData{
		Title:    "Register Person",
		Active:   "register",
		Section:  section,
		Notice:   notice,
		Register: session.Register.View(),
	}
}

// Index redirects to the detection page.
func (h *FormsHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/detect", http.StatusFound)
}

// DetectPage renders the detection form and its latest result.
func (h *FormsHandler) DetectPage(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}
	h.render(w, http.StatusOK, "detect.html", h.detectPage(session, r.URL.Query().Get("section"), ""))
}

// Detect handles a detection form submission.
func (h *FormsHandler) Detect(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}

	upload, closeUpload, err := readUpload(w, r)
	defer closeUpload()
	if err != nil {
		h.render(w, http.StatusBadRequest, "detect.html", h.detectPage(session, "", errParseMultipart))
		return
	}

	section := r.FormValue("section")
	if err := forms.ValidateDetect(recognition.DetectRequest{File: upload, Section: section}); err != nil {
		h.render(w, http.StatusBadRequest, "detect.html", h.detectPage(session, section, err.Error()))
		return
	}

	err = session.Detect.Submit(r.Context(), upload, section)
	if errors.Is(err, forms.ErrSubmitInFlight) {
		h.logger.WithField("session", session.ID).Warn("Rejected detection while another is in flight")
		h.render(w, http.StatusConflict, "detect.html", h.detectPage(session, section, h.messages.InFlight))
		return
	}
	// Any other outcome, failure included, is already reflected in the form state

	http.Redirect(w, r, "/detect?section="+url.QueryEscape(section), http.StatusSeeOther)
}

// ClearDetect drops the latest detection result and error.
func (h *FormsHandler) ClearDetect(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}
	session.Detect.Reset()
	http.Redirect(w, r, "/detect", http.StatusSeeOther)
}

// RegisterPage renders the registration form and its latest status message.
func (h *FormsHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}
	h.render(w, http.StatusOK, "register.html", h.registerPage(session, r.URL.Query().Get("section"), ""))
}

// Register handles a registration form submission.
func (h *FormsHandler) Register(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}

	upload, closeUpload, err := readUpload(w, r)
	defer closeUpload()
	if err != nil {
		h.render(w, http.StatusBadRequest, "register.html", h.registerPage(session, "", errParseMultipart))
		return
	}

	label := r.FormValue("label")
	contact := r.FormValue("Contact")
	section := r.FormValue("section")
	req := recognition.RegisterRequest{File: upload, Label: label, Contact: contact, Section: section}
	if err := forms.ValidateRegister(req); err != nil {
		h.logger.WithField("label", sanitizeForLog(label)).Debug("Rejected incomplete registration")
		h.render(w, http.StatusBadRequest, "register.html", h.registerPage(session, section, err.Error()))
		return
	}

	err = session.Register.Submit(r.Context(), upload, label, contact, section)
	if errors.Is(err, forms.ErrSubmitInFlight) {
		h.logger.WithField("session", session.ID).Warn("Rejected registration while another is in flight")
		h.render(w, http.StatusConflict, "register.html", h.registerPage(session, section, h.messages.InFlight))
		return
	}

	http.Redirect(w, r, "/register?section="+url.QueryEscape(section), http.StatusSeeOther)
}

// ClearRegister drops the latest registration status message.
func (h *FormsHandler) ClearRegister(w http.ResponseWriter, r *http.Request) {
	session := sessionOrError(w, r)
	if session == nil {
		return
	}
	session.Register.Reset()
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}
