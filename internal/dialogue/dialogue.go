package dialogue

import (
	"context"
	"strings"
	"sync"

	"flowsmith/internal/interpret"
)

// Interpreter is the single capability a dialogue needs per turn.
type Interpreter interface {
	Interpret(ctx context.Context, instruction string, priorAnswers map[string]string) (*interpret.Interpretation, error)
}

// Dialogue is one in-flight clarification conversation. Callers are
// expected to serialize Submit/Answer per dialogue; the mutex protects
// against a concurrent Abandon while an interpreter call is outstanding.
type Dialogue struct {
	mu       sync.Mutex
	id       string
	interp   Interpreter
	maxTurns int

	state       State
	instruction string
	pending     []interpret.ClarificationQuestion
	answers     map[string]string
	answered    []AnsweredQuestion
	turns       int
	latest      *interpret.Interpretation

	// epoch invalidates in-flight interpreter calls on abandon so a
	// late response is discarded instead of reviving the dialogue.
	epoch int

	watchers    map[int]chan Event
	nextWatcher int
}

func newDialogue(id string, interp Interpreter, maxTurns int) *Dialogue {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Dialogue{
		id:       id,
		interp:   interp,
		maxTurns: maxTurns,
		state:    StateAwaitingInstruction,
		answers:  make(map[string]string),
		watchers: make(map[int]chan Event),
	}
}

// ID returns the dialogue's session id.
func (d *Dialogue) ID() string { return d.id }

// State returns the current state.
func (d *Dialogue) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Latest returns the authoritative interpretation of the current turn.
func (d *Dialogue) Latest() *interpret.Interpretation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

// Submit runs the first interpretation turn for an instruction.
func (d *Dialogue) Submit(ctx context.Context, instruction string) (*interpret.Interpretation, error) {
	d.mu.Lock()
	if d.state == StateAbandoned {
		d.mu.Unlock()
		return nil, ErrAbandoned
	}
	if d.state != StateAwaitingInstruction {
		d.mu.Unlock()
		return nil, ErrInvalidState
	}
	d.instruction = strings.TrimSpace(instruction)
	accumulated := d.instruction
	answers := copyAnswers(d.answers)
	epoch := d.epoch
	d.mu.Unlock()

	out, err := d.interp.Interpret(ctx, accumulated, answers)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateAbandoned || d.epoch != epoch {
		return nil, ErrAbandoned
	}
	if err != nil {
		// Stay in AwaitingInstruction; the caller may retry.
		return nil, err
	}
	d.turns++
	d.applyLocked(out)
	return out, nil
}

// Answer consumes the head pending question and reinterprets with the
// full accumulated context. Ids that are not the current head fail with
// ErrUnknownQuestion, including ids that were already consumed.
func (d *Dialogue) Answer(ctx context.Context, questionID, text string) (*interpret.Interpretation, error) {
	text = strings.TrimSpace(text)

	d.mu.Lock()
	if d.state == StateAbandoned {
		d.mu.Unlock()
		return nil, ErrAbandoned
	}
	if d.state != StateAwaitingAnswer || len(d.pending) == 0 {
		d.mu.Unlock()
		return nil, ErrUnknownQuestion
	}
	head := d.pending[0]
	if head.QuestionID != strings.TrimSpace(questionID) {
		d.mu.Unlock()
		return nil, ErrUnknownQuestion
	}
	if text == "" {
		d.mu.Unlock()
		return nil, ErrEmptyAnswer
	}

	prevInstruction := d.instruction
	d.pending = d.pending[1:]
	d.answers[head.QuestionID] = text
	d.answered = append(d.answered, AnsweredQuestion{
		QuestionID: head.QuestionID,
		Question:   head.Question,
		Answer:     text,
	})
	d.instruction = d.instruction + "\nClarification: " + head.Question + "\nAnswer: " + text
	accumulated := d.instruction
	answers := copyAnswers(d.answers)
	epoch := d.epoch
	d.mu.Unlock()

	out, err := d.interp.Interpret(ctx, accumulated, answers)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateAbandoned || d.epoch != epoch {
		return nil, ErrAbandoned
	}
	if err != nil {
		// Roll back the consumed answer so the caller can retry it.
		d.instruction = prevInstruction
		delete(d.answers, head.QuestionID)
		d.answered = d.answered[:len(d.answered)-1]
		d.pending = append([]interpret.ClarificationQuestion{head}, d.pending...)
		return nil, err
	}
	d.turns++
	d.applyLocked(out)
	return out, nil
}

// Abandon terminates the dialogue. Safe to call while an interpreter
// call is outstanding; the eventual response is discarded.
func (d *Dialogue) Abandon() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateAbandoned {
		return
	}
	d.state = StateAbandoned
	d.epoch++
	d.pending = nil
	d.notifyLocked()
	for id, ch := range d.watchers {
		delete(d.watchers, id)
		close(ch)
	}
}

// applyLocked installs the new authoritative interpretation and moves
// the state machine. Once the turn budget is exhausted the resolution is
// forced so a misbehaving model cannot loop the dialogue forever.
func (d *Dialogue) applyLocked(out *interpret.Interpretation) {
	if out.ClarificationNeeded && d.turns >= d.maxTurns {
		out.ClarificationNeeded = false
		out.ClarificationQuestions = nil
		out.ForcedResolution = true
	}
	d.latest = out
	if out.ClarificationNeeded {
		d.state = StateAwaitingAnswer
		d.pending = append([]interpret.ClarificationQuestion(nil), out.ClarificationQuestions...)
	} else {
		d.state = StateResolved
		d.pending = nil
	}
	d.notifyLocked()
}

// Subscribe delivers dialogue events until ctx is canceled or the
// dialogue is abandoned. The current state is emitted immediately.
func (d *Dialogue) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	d.mu.Lock()
	if d.state == StateAbandoned {
		d.mu.Unlock()
		close(ch)
		return ch
	}
	id := d.nextWatcher
	d.nextWatcher++
	d.watchers[id] = ch
	ev := d.eventLocked()
	d.mu.Unlock()

	pushEvent(ch, ev)

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		if c, ok := d.watchers[id]; ok {
			delete(d.watchers, id)
			close(c)
		}
		d.mu.Unlock()
	}()
	return ch
}

func (d *Dialogue) notifyLocked() {
	ev := d.eventLocked()
	for _, ch := range d.watchers {
		pushEvent(ch, ev)
	}
}

func (d *Dialogue) eventLocked() Event {
	ev := Event{
		SessionID: d.id,
		State:     d.state,
		Turns:     d.turns,
	}
	if len(d.pending) > 0 {
		q := d.pending[0]
		ev.PendingQuestion = &q
	}
	if d.latest != nil {
		ev.Forced = d.latest.ForcedResolution
	}
	return ev
}

func pushEvent(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}

// Snapshot captures the dialogue for persistence.
func (d *Dialogue) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		ID:          d.id,
		State:       d.state,
		Instruction: d.instruction,
		Pending:     append([]interpret.ClarificationQuestion(nil), d.pending...),
		Answers:     copyAnswers(d.answers),
		Answered:    append([]AnsweredQuestion(nil), d.answered...),
		Turns:       d.turns,
		Latest:      d.latest,
	}
}

// restore rebuilds a live dialogue from a persisted snapshot.
func restore(snap Snapshot, interp Interpreter, maxTurns int) *Dialogue {
	d := newDialogue(snap.ID, interp, maxTurns)
	d.state = snap.State
	d.instruction = snap.Instruction
	d.pending = append([]interpret.ClarificationQuestion(nil), snap.Pending...)
	if snap.Answers != nil {
		d.answers = copyAnswers(snap.Answers)
	}
	d.answered = append([]AnsweredQuestion(nil), snap.Answered...)
	d.turns = snap.Turns
	d.latest = snap.Latest
	return d
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
