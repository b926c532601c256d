package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// formField is one text part of a multipart body. Order is preserved.
type formField struct {
	name  string
	value string
}

// serviceErrorer is implemented by response types that can carry an "error" field.
type serviceErrorer interface {
	serviceError() string
}

// buildMultipart writes the file part followed by the text fields.
func buildMultipart(file Upload, fields []formField) (*bytes.Buffer, string, error) {
	if file.Content == nil {
		return nil, "", ErrMissingFile
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileName := filepath.Base(file.Filename)
	if file.Filename == "" {
		fileName = "upload.jpg"
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, "", fmt.Errorf("could not copy file data: %w", err)
	}

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("could not write field %s: %w", f.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// doPostMultipart uploads a file plus text fields and unmarshals the JSON response.
// Any 2xx status is accepted; a non-empty "error" field in the body is a ServiceError.
func doPostMultipart[T any, PT interface {
	*T
	serviceErrorer
}](ctx context.Context, c *Client, endpoint string, file Upload, fields []formField) (*T, error) {
	body, contentType, err := buildMultipart(file, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, RequestIDFromContext(ctx))

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	c.captureResponse(endpoint, respBody)

	var result T
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	if msg := PT(&result).serviceError(); msg != "" {
		return nil, &ServiceError{Message: msg}
	}

	return &result, nil
}
