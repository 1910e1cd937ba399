package llm

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is the base error for provider failures. More specific failure
// classes embed it so callers can branch with errors.As while still reading
// the provider and status code off the base type.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error { return e.Cause }

// AuthError reports a rejected or missing API key.
type AuthError struct{ APIError }

// RateLimitError reports provider-side throttling.
type RateLimitError struct{ APIError }

// ServerError reports a provider-side internal failure.
type ServerError struct{ APIError }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRateLimit reports whether err is a rate-limit rejection.
func IsRateLimit(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// classify maps a raw provider error onto the typed hierarchy. gollm
// surfaces provider failures as strings, so classification is by message
// content; anything unrecognized stays a plain APIError.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid key"):
		return &AuthError{APIError{Provider: provider, StatusCode: 401, Message: msg, Cause: err}}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &RateLimitError{APIError{Provider: provider, StatusCode: 429, Message: msg, Cause: err}}
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		return &ServerError{APIError{Provider: provider, StatusCode: 500, Message: msg, Cause: err}}
	default:
		return &APIError{Provider: provider, Message: msg, Cause: err}
	}
}
