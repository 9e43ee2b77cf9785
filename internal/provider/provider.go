// Package provider defines the contracts for the external embedding and
// completion collaborators consumed by the analysis and retrieval engines.
//
// Both capabilities are fallible and possibly rate-limited. Callers are
// expected to classify failures with IsRateLimited/IsUnavailable and degrade
// to deterministic fallback behavior rather than surfacing provider errors.
package provider

import (
	"context"
	"errors"
	"strings"
)

// Common provider error classes.
var (
	// ErrUnavailable indicates no provider is configured or the provider
	// cannot be reached at all.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates the provider rejected the call due to rate
	// limiting or quota exhaustion.
	ErrRateLimited = errors.New("provider rate limited")
)

// Embedder produces a vector representation of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer produces a free-form completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// IsRateLimited reports whether err is classified as a rate-limit/quota error.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return matchesAny(err, "rate limit", "rate_limit", "quota", "429", "too many requests")
}

// IsUnavailable reports whether err indicates the provider cannot serve calls.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	return matchesAny(err, "connection refused", "no such host", "not configured")
}

// ClassifyError normalizes raw provider SDK errors into the documented error
// classes, wrapping the original error. Unrecognized errors pass through.
func ClassifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable):
		return err
	case IsRateLimited(err):
		return errors.Join(ErrRateLimited, err)
	case IsUnavailable(err):
		return errors.Join(ErrUnavailable, err)
	default:
		return err
	}
}

func matchesAny(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
