package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited indicates a transient backpressure signal from the
	// embedding backend. Callers may retry the same request after a delay.
	ErrRateLimited = errors.New("embedding backend rate limited")

	// ErrQuotaExhausted indicates a permanent quota or billing failure.
	// Retrying against the same backend will not succeed.
	ErrQuotaExhausted = errors.New("embedding quota exhausted")

	// ErrNoBackend indicates that neither embedding variant could be
	// constructed. Errors wrapping it carry remediation instructions.
	ErrNoBackend = errors.New("no working embedding backend")
)

// classifyBackendError maps raw backend errors onto the package taxonomy.
// The embeddings client surfaces API failures as text, so classification
// matches the substrings the OpenAI API is known to use. Quota exhaustion is
// checked first: the API serves quota errors with HTTP 429, so a rate-limit
// match alone would misfile them as transient.
func classifyBackendError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient_quota"),
		strings.Contains(msg, "exceeded your current quota"),
		strings.Contains(msg, "billing"):
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
