package deepseek

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned before any network call when no credential is stored
var ErrMissingAPIKey = errors.New("DeepSeek API key not found")

// APIError is returned when the completion endpoint answers with a non-success status
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("DeepSeek API error: %s", e.Status)
}
