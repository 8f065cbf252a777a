package providers

import (
	"errors"
	"fmt"
)

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type missingCredentialError struct {
	envVar string
}

func (e *missingCredentialError) Error() string {
	return e.envVar + " environment variable is not set"
}

// IsAuthError reports whether err is an authentication error.
func IsAuthError(err error) bool {
	var target *authError
	return errors.As(err, &target)
}

// IsMissingCredential reports whether err means no API key was configured.
func IsMissingCredential(err error) bool {
	var target *missingCredentialError
	return errors.As(err, &target)
}

func isRetryable(err error) bool {
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}
