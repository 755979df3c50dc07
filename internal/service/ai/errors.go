package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a model failure for the engine and the operator.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindAuthFailure     Kind = "auth_failure"
	KindTimeout         Kind = "timeout"
	KindProviderError   Kind = "provider_error"
	KindEmptyResponse   Kind = "empty_response"
	KindContextOverflow Kind = "context_overflow"
)

// ModelError wraps a provider failure with its classification. The session
// survives every kind; the engine surfaces them as user-visible errors.
type ModelError struct {
	Kind Kind
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model error: %s", e.Kind)
	}
	return fmt.Sprintf("model error (%s): %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// UserMessage renders the failure for the end user without leaking provider
// internals.
func (e *ModelError) UserMessage() string {
	switch e.Kind {
	case KindRateLimited:
		return "The model is receiving too many requests. Wait a moment and try again."
	case KindAuthFailure:
		return "The model rejected our credentials. The operator needs to check the configuration."
	case KindTimeout:
		return "The model took too long to respond. Try your last action again."
	case KindEmptyResponse:
		return "The model returned an empty response. Try your last action again."
	case KindContextOverflow:
		return "The conversation has grown too long for the model to follow."
	default:
		return "The model failed to generate the next view. Try your last action again."
	}
}

// classify maps a raw provider error onto the taxonomy. Providers signal most
// conditions only through error text, so matching is necessarily lexical.
func classify(err error) *ModelError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ModelError{Kind: KindTimeout, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		return &ModelError{Kind: KindRateLimited, Err: err}
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") || strings.Contains(msg, "authentication") || strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return &ModelError{Kind: KindAuthFailure, Err: err}
	case strings.Contains(msg, "context length") || strings.Contains(msg, "maximum context") || strings.Contains(msg, "context window") || strings.Contains(msg, "token limit"):
		return &ModelError{Kind: KindContextOverflow, Err: err}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &ModelError{Kind: KindTimeout, Err: err}
	default:
		return &ModelError{Kind: KindProviderError, Err: err}
	}
}
