package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default endpoint paths, relative to the service base URL.
const (
	DefaultDetectEndpoint   = "detect_and_recognize/"
	DefaultRegisterEndpoint = "register_person/"
)

// RequestIDHeader carries the per-submission correlation ID.
const RequestIDHeader = "X-Request-ID"

// Client talks to the face detection and recognition service.
type Client struct {
	URL              string
	parsedURL        *url.URL
	httpClient       *http.Client
	detectEndpoint   string
	registerEndpoint string
	captureDir       string
}

// resolveURL joins an endpoint path onto the base URL, keeping a trailing slash
// because the service routes are declared with one.
func (c *Client) resolveURL(endpoint string) string {
	resolved := c.parsedURL.JoinPath(endpoint).String()
	if strings.HasSuffix(endpoint, "/") && !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}
	return resolved
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// NewClient creates a client for the service at rawURL.
// A zero timeout means no client-side timeout.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithCapture(rawURL, timeout, "")
}

// NewClientWithCapture creates a client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL string, timeout time.Duration, captureDir string) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("recognition service URL is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid recognition service URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid recognition service URL %q: scheme must be http or https", rawURL)
	}

	c := &Client{
		URL:              parsed.String(),
		parsedURL:        parsed,
		httpClient:       &http.Client{Timeout: timeout},
		detectEndpoint:   DefaultDetectEndpoint,
		registerEndpoint: DefaultRegisterEndpoint,
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetEndpoints overrides the endpoint paths. Empty values keep the current path.
func (c *Client) SetEndpoints(detect, register string) {
	if detect != "" {
		c.detectEndpoint = detect
	}
	if register != "" {
		c.registerEndpoint = register
	}
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the response body to a file if capturing is enabled.
// The base64 image is elided so captures stay readable.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	filename := strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", "_")
	timestamp := time.Now().Format("20060102_150405.000")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)
	path := filepath.Join(c.captureDir, filename)

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if img, ok := payload["image_base64"].(string); ok {
			payload["image_base64"] = fmt.Sprintf("<%d bytes elided>", len(img))
		}
		if pretty, err := json.MarshalIndent(payload, "", "  "); err == nil {
			body = pretty
		}
	} else {
		var prettyJSON bytes.Buffer
		if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
			body = prettyJSON.Bytes()
		}
	}

	// WriteFile error is non-critical for capturing
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation ID that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation ID, generating one if none was set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
