package social

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPosts is returned when the account timeline has no posts.
var ErrNoPosts = errors.New("timeline has no posts")

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, strings.Join(e.Messages, "; "))
}
