// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Upload constants
const (
	// MaxUploadSize is the maximum multipart body accepted by the web UI (32 MB)
	MaxUploadSize = 32 << 20
)

// Batch detection constants
const (
	// DefaultConcurrency is the default number of parallel detection requests
	DefaultConcurrency = 4

	// DefaultOutputDir is where processed images are written by the detect command
	DefaultOutputDir = "Results"

	// ProcessedPrefix is prepended to the source file name of a processed image
	ProcessedPrefix = "processed_"
)
