package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed generation attempt. The string value is
// surfaced to API callers as the answer's error_kind field.
type ErrorKind string

const (
	KindRateLimited   ErrorKind = "GenerationRateLimited"
	KindUnauthorized  ErrorKind = "GenerationUnauthorized"
	KindForbidden     ErrorKind = "GenerationForbidden"
	KindNotFound      ErrorKind = "GenerationNotFound"
	KindSafetyBlocked ErrorKind = "GenerationSafetyBlocked"
	KindTokenLimit    ErrorKind = "GenerationTokenLimitExceeded"
	KindEmpty         ErrorKind = "GenerationEmpty"
	KindUnknown       ErrorKind = "GenerationUnknown"
)

// GenerationError is returned by GeminiClient when a generation request
// fails. Callers classify on Kind via errors.As; the orchestrator never
// lets one of these propagate past the answer boundary.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// classifyError maps an HTTP status code and response body to an error kind.
// The body is only consulted when the status code alone is not conclusive.
func classifyError(status int, body string) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	}

	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return KindRateLimited
	case strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"):
		return KindNotFound
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return KindUnauthorized
	case strings.Contains(lower, "forbidden"):
		return KindForbidden
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		return KindSafetyBlocked
	case strings.Contains(lower, "token") && (strings.Contains(lower, "exceed") || strings.Contains(lower, "limit")):
		return KindTokenLimit
	}
	return KindUnknown
}
