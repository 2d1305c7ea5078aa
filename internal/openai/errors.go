package openai

import (
	"errors"
	"fmt"
)

// ErrInvalidRole indicates a role label outside the six known variants.
var ErrInvalidRole = errors.New("invalid message role")

// ErrInvalidMessage indicates a message payload missing a field its role requires.
var ErrInvalidMessage = errors.New("invalid message")

// ErrInvalidContent indicates a content value that is neither a JSON string nor a JSON array.
var ErrInvalidContent = errors.New("invalid message content")

// ErrMissingContent indicates a message whose content is absent.
var ErrMissingContent = errors.New("message content is absent")

// ErrContentNotText indicates structured multi-part content where plain text was expected.
var ErrContentNotText = errors.New("message content is not plain text")

// APIError is returned when the upstream API answers with a non-2xx status.
// Body carries the raw response body; its shape is provider-defined and is
// deliberately not parsed here.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream api returned status %d: %s", e.StatusCode, e.Body)
}
