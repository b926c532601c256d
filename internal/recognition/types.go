package recognition

import (
	"encoding/base64"
	"fmt"
	"io"
)

// Upload is the binary image sent in the "file" multipart field.
type Upload struct {
	Filename string
	Content  io.Reader
}

// DetectRequest is the body of a detect_and_recognize call.
type DetectRequest struct {
	File    Upload
	Section string `validate:"required"`
}

// RegisterRequest is the body of a register_person call.
type RegisterRequest struct {
	File    Upload
	Label   string `validate:"required"`
	Contact string `validate:"required,numeric"`
	Section string `validate:"required"`
}

// DetectionResult is the detect_and_recognize response.
type DetectionResult struct {
	ImageBase64     string   `json:"image_base64"`
	IdentifiedNames []string `json:"identified_names"`
	Message         string   `json:"message,omitempty"`
	ResultPath      string   `json:"result_path,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// RegistrationResult is the register_person response.
type RegistrationResult struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ImageDataURI returns the processed image as a JPEG data URI usable as an img src.
func (r *DetectionResult) ImageDataURI() string {
	return "data:image/jpeg;base64," + r.ImageBase64
}

// Names returns the identified names in service order, never nil.
func (r *DetectionResult) Names() []string {
	if r.IdentifiedNames == nil {
		return []string{}
	}
	names := make([]string, len(r.IdentifiedNames))
	copy(names, r.IdentifiedNames)
	return names
}

// ImageBytes decodes the base64 payload into raw JPEG bytes.
func (r *DetectionResult) ImageBytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("could not decode image_base64: %w", err)
	}
	return data, nil
}

func (r *DetectionResult) serviceError() string    { return r.Error }
func (r *RegistrationResult) serviceError() string { return r.Error }
