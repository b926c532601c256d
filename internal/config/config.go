package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Recognition RecognitionConfig
	Web         WebConfig
	Log         LogConfig
	Defaults    DefaultsConfig
}

type RecognitionConfig struct {
	URL     string        // base URL of the recognition service (defaults to http://localhost:8000)
	Timeout time.Duration // per-request timeout (defaults to 2m)
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string // extra browser origins for /api/v1; loopback is always allowed
}

type LogConfig struct {
	Level string // logrus level name (defaults to info)
	File  string // optional rotating log file
}

type DefaultsConfig struct {
	Endpoints    EndpointsConfig `yaml:"endpoints"`
	Messages     MessagesConfig  `yaml:"messages"`
	UnknownLabel string          `yaml:"unknown_label"`
}

type EndpointsConfig struct {
	Detect   string `yaml:"detect"`
	Register string `yaml:"register"`
}

type MessagesConfig struct {
	DetectFailed   string `yaml:"detect_failed"`
	RegisterFailed string `yaml:"register_failed"`
	InFlight       string `yaml:"in_flight"`
}

const (
	defaultRecognitionURL = "http://localhost:8000"
	defaultTimeoutSeconds = 120
	defaultWebHost        = "0.0.0.0"
	defaultWebPort        = 8080
	defaultLogLevel       = "info"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the env var value or defaultVal when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated env var, dropping empty items.
func envList(key string) []string {
	var items []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// LoadDefaults decodes the embedded defaults.yaml.
func LoadDefaults() DefaultsConfig {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, so this only fires on a broken build
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return defaults
}

func Load() *Config {
	return &Config{
		Recognition: RecognitionConfig{
			URL:     envString("RECOGNITION_URL", defaultRecognitionURL),
			Timeout: time.Duration(envInt("RECOGNITION_TIMEOUT", defaultTimeoutSeconds)) * time.Second,
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", defaultWebHost),
			Port:           envInt("WEB_PORT", defaultWebPort),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", defaultLogLevel),
			File:  os.Getenv("LOG_FILE"),
		},
		Defaults: LoadDefaults(),
	}
}
