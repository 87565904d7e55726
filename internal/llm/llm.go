// Package llm invokes the external text-completion provider.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer sends one system instruction and one user prompt to a
// completion provider and returns the first candidate's text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

type Kind string

const (
	// KindProviderCall covers transport, auth, rate limit and decoding failures.
	KindProviderCall Kind = "provider_call"
	// KindMissingField means the provider answered but without message content.
	KindMissingField Kind = "missing_field"
)

var (
	ErrNoChoices    = errors.New("no choices returned by model")
	ErrEmptyContent = errors.New("first choice has no message content")
)

// Error is the single failure type returned by Completer implementations.
type Error struct {
	Kind       Kind
	Model      string
	StatusCode int // provider HTTP status, 0 when unknown
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing field in %s response: %v", e.Model, e.Err)
	default:
		return fmt.Sprintf("%s call failed: %v", e.Model, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
