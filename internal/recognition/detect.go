package recognition

import (
	"context"
	"errors"
	"fmt"
)

// DetectAndRecognize uploads an image for a section and returns the annotated
// image together with the names the service recognized.
func (c *Client) DetectAndRecognize(ctx context.Context, req DetectRequest) (*DetectionResult, error) {
	result, err := doPostMultipart[DetectionResult](ctx, c, c.detectEndpoint, req.File, []formField{
		{name: "section", value: req.Section},
	})
	if err != nil {
		return nil, fmt.Errorf("detect and recognize: %w", err)
	}

	if result.ImageBase64 == "" {
		return nil, errors.New("detect and recognize: response has no image_base64")
	}

	return result, nil
}
