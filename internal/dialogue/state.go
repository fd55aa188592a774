package dialogue

import (
	"errors"

	"flowsmith/internal/interpret"
)

// State is the lifecycle position of one clarification dialogue.
type State string

const (
	StateAwaitingInstruction State = "awaiting_instruction"
	StateAwaitingAnswer      State = "awaiting_answer"
	StateResolved            State = "resolved"
	StateAbandoned           State = "abandoned"
)

var (
	// ErrUnknownQuestion marks an answer for an id that is not the head
	// of the pending queue: consumed, out of order, or never issued.
	// Caller protocol violation, not retryable.
	ErrUnknownQuestion = errors.New("dialogue: unknown question")

	// ErrAbandoned marks any operation on an abandoned dialogue.
	ErrAbandoned = errors.New("dialogue: dialogue abandoned")

	// ErrInvalidState marks an operation that is not legal in the
	// dialogue's current state.
	ErrInvalidState = errors.New("dialogue: invalid state for operation")

	// ErrEmptyAnswer marks a blank answer submission.
	ErrEmptyAnswer = errors.New("dialogue: answer text is required")

	// ErrSessionNotFound marks a session id with no stored dialogue.
	ErrSessionNotFound = errors.New("dialogue: session not found")
)

// AnsweredQuestion records one consumed question with its answer.
type AnsweredQuestion struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Snapshot is the serializable form of a dialogue, persisted in the
// session store between requests.
type Snapshot struct {
	ID          string                            `json:"id"`
	State       State                             `json:"state"`
	Instruction string                            `json:"instruction"`
	Pending     []interpret.ClarificationQuestion `json:"pending,omitempty"`
	Answers     map[string]string                 `json:"answers,omitempty"`
	Answered    []AnsweredQuestion                `json:"answered,omitempty"`
	Turns       int                               `json:"turns"`
	Latest      *interpret.Interpretation         `json:"latest,omitempty"`
}

// Event is emitted to watchers on every dialogue transition.
type Event struct {
	SessionID       string                           `json:"session_id"`
	State           State                            `json:"state"`
	Turns           int                              `json:"turns"`
	PendingQuestion *interpret.ClarificationQuestion `json:"pending_question,omitempty"`
	Forced          bool                             `json:"forced,omitempty"`
}
