package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"innerlog/internal/domain"
)

// Recorder persists sessions and turns. The engine keeps the live arena in
// memory; durable history belongs to the store.
type Recorder interface {
	SaveSession(s domain.ConversationSession) error
	UpdateSession(s domain.ConversationSession) error
	AppendTurn(t domain.ConversationTurn) error
}

type session struct {
	mu    sync.Mutex
	state domain.ConversationSession
	turns []domain.ConversationTurn
}

// Engine owns the arena of live conversation sessions. Arena membership is
// guarded by the engine mutex; mutations within one session are serialized
// by that session's own mutex, so concurrent PostMessage calls cannot
// produce duplicate or out-of-order sequence numbers.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*session

	gen    Generator
	rec    Recorder
	window int
}

func NewEngine(gen Generator, rec Recorder, window int) *Engine {
	if window <= 0 {
		window = 10
	}
	return &Engine{
		sessions: make(map[string]*session),
		gen:      gen,
		rec:      rec,
		window:   window,
	}
}

// Start creates an active session and returns it with its scripted opening
// message.
func (e *Engine) Start(owner int64, convType domain.ConversationType, theme string) (domain.ConversationSession, string, error) {
	if convType == "" {
		convType = domain.ConversationGeneral
	}
	if !convType.Valid() {
		return domain.ConversationSession{}, "", domain.Invalid("conversation_type", fmt.Sprintf("unknown type %q", convType))
	}

	s := &session{state: domain.ConversationSession{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Type:      convType,
		Theme:     theme,
		Status:    domain.SessionActive,
		CreatedAt: time.Now().UTC(),
	}}

	// Persist first: a session that failed to save must never be live in
	// the arena.
	if err := e.rec.SaveSession(s.state); err != nil {
		return domain.ConversationSession{}, "", fmt.Errorf("save session: %w", err)
	}

	e.mu.Lock()
	e.sessions[s.state.ID] = s
	e.mu.Unlock()

	return s.state, OpeningMessage(convType, theme), nil
}

// lookup resolves a session for an owner. Unknown ids and ids owned by a
// different user are indistinguishable to the caller.
func (e *Engine) lookup(owner int64, sessionID string) (*session, error) {
	e.mu.RLock()
	s, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok || s.state.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// PostMessage appends one turn to an active session: it slices the bounded
// context window, asks the generator for a reply and persists the result.
func (e *Engine) PostMessage(ctx context.Context, owner int64, sessionID, text string) (domain.ConversationTurn, error) {
	s, err := e.lookup(owner, sessionID)
	if err != nil {
		return domain.ConversationTurn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == domain.SessionEnded {
		return domain.ConversationTurn{}, domain.ErrSessionEnded
	}
	if strings.TrimSpace(text) == "" {
		return domain.ConversationTurn{}, domain.Invalid("message", "must not be empty")
	}

	window := s.turns
	if len(window) > e.window {
		window = window[len(window)-e.window:]
	}

	reply, err := e.gen.Respond(ctx, text, window, s.state.Type, s.state.Theme)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("generate response: %w", err)
	}

	turn := domain.ConversationTurn{
		SessionID:  s.state.ID,
		SequenceNo: len(s.turns) + 1,
		UserText:   text,
		ReplyText:  reply.Text,
		Source:     reply.Source,
		Type:       s.state.Type,
		Theme:      s.state.Theme,
		CreatedAt:  time.Now().UTC(),
	}
	s.turns = append(s.turns, turn)

	if err := e.rec.AppendTurn(turn); err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("append turn: %w", err)
	}

	return turn, nil
}

// End flips a session to ended. Ending an already-ended session is a no-op.
func (e *Engine) End(owner int64, sessionID string) error {
	s, err := e.lookup(owner, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == domain.SessionEnded {
		return nil
	}
	now := time.Now().UTC()
	s.state.Status = domain.SessionEnded
	s.state.EndedAt = &now

	if err := e.rec.UpdateSession(s.state); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// ActiveSessions returns the caller's live sessions in arbitrary order.
// Each session's state is copied under its own mutex; End mutates state
// holding only that mutex, so the engine lock alone is not enough.
func (e *Engine) ActiveSessions(owner int64) []domain.ConversationSession {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []domain.ConversationSession
	for _, s := range e.sessions {
		s.mu.Lock()
		state := s.state
		s.mu.Unlock()
		if state.OwnerID == owner && state.Status == domain.SessionActive {
			out = append(out, state)
		}
	}
	return out
}

// EvictEnded removes ended sessions whose EndedAt is older than ttl from the
// arena. Eviction is explicit: the cron sweeper calls it, nothing else drops
// sessions. Persisted history is unaffected.
func (e *Engine) EvictEnded(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := 0
	for id, s := range e.sessions {
		s.mu.Lock()
		stale := s.state.Status == domain.SessionEnded && s.state.EndedAt != nil && s.state.EndedAt.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(e.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("evicted %d ended sessions from arena", evicted)
	}
	return evicted
}
