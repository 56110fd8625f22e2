package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is a failed call to the script server. Message carries the
// server's response body, which is what gets shown to the user.
type RequestError struct {
	Code    int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Unauthenticated reports whether this failure means the session expired.
// Callers are expected to swallow this case and defer to the outer
// re-authentication flow instead of surfacing it.
func (e *RequestError) Unauthenticated() bool {
	return e.Code == http.StatusUnauthorized
}

// IsUnauthenticated reports whether err is an unauthenticated RequestError.
func IsUnauthenticated(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Unauthenticated()
}

// UserMessage extracts the text that should be surfaced for a failed call:
// the server's message for request errors, err.Error() for anything else.
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
