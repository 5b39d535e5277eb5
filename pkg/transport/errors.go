package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/conduit-lang/linkage/pkg/orm/document"
)

var (
	// ErrEmptyBody is returned when a success response has no body
	ErrEmptyBody = errors.New("empty response body")

	// ErrInvalidJSON is returned when a success response is not JSON
	ErrInvalidJSON = errors.New("response body is not valid JSON")
)

// Error is a failed request: either a non-success status (StatusCode set) or
// a network failure (Err set, StatusCode zero).
type Error struct {
	StatusCode int
	URL        string
	Body       []byte

	// Errors holds the JSON:API error objects of the body, if it had any.
	Errors []document.ErrorObject

	Err error
}

func newStatusError(status int, url string, body []byte) *Error {
	e := &Error{StatusCode: status, URL: url, Body: body}

	var doc struct {
		Errors []document.ErrorObject `json:"errors"`
	}
	if json.Unmarshal(body, &doc) == nil {
		e.Errors = doc.Errors
	}
	return e
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}

	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	switch {
	case len(e.Errors) > 0:
		return fmt.Sprintf("GET %s: %s: %s", e.URL, status, e.Errors[0].Error())
	case e.Err != nil:
		return fmt.Sprintf("GET %s: %s: %v", e.URL, status, e.Err)
	}
	return fmt.Sprintf("GET %s: %s", e.URL, status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying later might succeed
func (e *Error) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
