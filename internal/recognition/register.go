package recognition

import (
	"context"
	"fmt"
)

// RegisterPerson uploads a reference image for a new person.
// The service stores the face embedding under label within section.
func (c *Client) RegisterPerson(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	result, err := doPostMultipart[RegistrationResult](ctx, c, c.registerEndpoint, req.File, []formField{
		{name: "label", value: req.Label},
		{name: "Contact", value: req.Contact},
		{name: "section", value: req.Section},
	})
	if err != nil {
		return nil, fmt.Errorf("register person: %w", err)
	}
	return result, nil
}
