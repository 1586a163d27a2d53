package quizapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every failed backend call: transport errors and non-2xx replies.
	ErrUnavailable = errors.New("quiz backend unavailable")
	// ErrUnauthorized marks a 401 reply on an authenticated call.
	ErrUnauthorized = errors.New("quiz backend rejected credentials")
)

// APIError describes a failed backend call. StatusCode is 0 for transport errors.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrUnavailable for every APIError and ErrUnauthorized for 401s.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return true
	case ErrUnauthorized:
		return e.StatusCode == 401
	}
	return false
}

func (e *APIError) Unwrap() error { return e.Err }

// DetailOf returns the backend-supplied detail message of err, if any.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
