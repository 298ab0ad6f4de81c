package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthorized is a 401 from either backend. It is the only condition
	// that triggers a token refresh.
	KindUnauthorized
	KindClient
	KindServer
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// APIError is a non-2xx response decoded from {message, details, fieldErrors}.
type APIError struct {
	Status      int
	Message     string
	Details     []string
	FieldErrors map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return KindUnauthorized
		case apiErr.Status >= 500:
			return KindServer
		case apiErr.Status >= 400:
			return KindClient
		}
		return KindUnknown
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorMessage renders err for display, preferring backend details when present.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Details) > 0 {
			return apiErr.Message + ": " + strings.Join(apiErr.Details, ", ")
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
