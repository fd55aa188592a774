package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"flowsmith/internal/interpret"
	"flowsmith/internal/session"
)

// Manager owns the set of live dialogues and their persisted snapshots.
// One dialogue belongs to exactly one conversation; the manager hands
// out session ids and rehydrates dialogues that fell out of memory.
type Manager struct {
	interp   Interpreter
	store    session.Store
	maxTurns int

	mu   sync.Mutex
	live map[string]*Dialogue
}

func NewManager(interp Interpreter, store session.Store, maxTurns int) *Manager {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Manager{
		interp:   interp,
		store:    store,
		maxTurns: maxTurns,
		live:     make(map[string]*Dialogue),
	}
}

// Start creates a dialogue for an instruction and runs the first turn.
func (m *Manager) Start(ctx context.Context, instruction string) (string, *interpret.Interpretation, error) {
	d := newDialogue(uuid.NewString(), m.interp, m.maxTurns)
	out, err := d.Submit(ctx, instruction)
	if err != nil {
		return "", nil, err
	}
	m.mu.Lock()
	m.live[d.ID()] = d
	m.mu.Unlock()
	m.persist(ctx, d)
	return d.ID(), out, nil
}

// Answer submits one answer to the dialogue's currently pending question.
func (m *Manager) Answer(ctx context.Context, sessionID, questionID, text string) (*interpret.Interpretation, error) {
	d, err := m.dialogue(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out, err := d.Answer(ctx, questionID, text)
	if err != nil {
		return nil, err
	}
	m.persist(ctx, d)
	return out, nil
}

// Abandon cancels a dialogue and drops its stored snapshot.
func (m *Manager) Abandon(ctx context.Context, sessionID string) error {
	d, err := m.dialogue(ctx, sessionID)
	if err != nil {
		return err
	}
	d.Abandon()
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			log.Printf("dialogue: delete session %s: %v", sessionID, err)
		}
	}
	return nil
}

// Dialogue returns the live dialogue for a session, rehydrating from the
// store if needed.
func (m *Manager) Dialogue(ctx context.Context, sessionID string) (*Dialogue, error) {
	return m.dialogue(ctx, sessionID)
}

func (m *Manager) dialogue(ctx context.Context, sessionID string) (*Dialogue, error) {
	m.mu.Lock()
	d, ok := m.live[sessionID]
	m.mu.Unlock()
	if ok {
		return d, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	d = restore(snap, m.interp, m.maxTurns)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.live[sessionID]; ok {
		return existing, nil
	}
	m.live[sessionID] = d
	return d, nil
}

func (m *Manager) persist(ctx context.Context, d *Dialogue) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(d.Snapshot())
	if err != nil {
		log.Printf("dialogue: encode session %s: %v", d.ID(), err)
		return
	}
	if err := m.store.Put(ctx, d.ID(), raw); err != nil {
		log.Printf("dialogue: persist session %s: %v", d.ID(), err)
	}
}
