package interpret

import "errors"

var (
	// ErrInvalidInstruction marks empty or malformed user input. Not
	// retryable without user correction.
	ErrInvalidInstruction = errors.New("interpret: invalid instruction")

	// ErrInterpretationFailed marks an LLM/provider failure or an
	// unusable payload. Retryable with backoff by the caller.
	ErrInterpretationFailed = errors.New("interpret: interpretation failed")
)
