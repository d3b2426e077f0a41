package remote

import (
	"fmt"
	"net/http"

	"github.com/friendsofgo/errors"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether the cause of err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	se, ok := errors.Cause(err).(*StatusError)
	return ok && se.StatusCode == code
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
