package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse describes the recognition service the UI talks to.
type ConfigResponse struct {
	RecognitionURL   string `json:"recognition_url"`
	DetectEndpoint   string `json:"detect_endpoint"`
	RegisterEndpoint string `json:"register_endpoint"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
}

// Get returns the recognition service configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		RecognitionURL:   h.config.Recognition.URL,
		DetectEndpoint:   h.config.Defaults.Endpoints.Detect,
		RegisterEndpoint: h.config.Defaults.Endpoints.Register,
		TimeoutSeconds:   int(h.config.Recognition.Timeout.Seconds()),
	})
}
