package llmclient

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON marks an LLM response that could not be used as JSON.
var ErrInvalidJSON = errors.New("invalid json from LLM")

// LLMClient is a provider-neutral completion capability. GenerateJSON
// sends a prompt plus a JSON-encoded input payload and returns the raw
// JSON the model produced. Cross-cutting concerns (retries, timeouts,
// logging) are applied via middleware, not here.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
