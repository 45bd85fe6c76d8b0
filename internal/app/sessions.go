package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/domain"
)

// SessionView is a session id plus the step it is parked on.
type SessionView struct {
	ID string `json:"id"`
	Step
}

// Sessions parks normalization sessions in a cache between requests.
type Sessions struct {
	cache domain.Cache
	ttl   time.Duration
	opts  SessionOptions
	newID func() string

	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the per-session write locks; ids hash onto a stripe.
const lockStripes = 64

func NewSessions(c domain.Cache, ttl time.Duration, opts SessionOptions) *Sessions {
	return &Sessions{cache: c, ttl: ttl, opts: opts.withDefaults(), newID: uuid.NewString}
}

func sessionKey(id string) string { return "session:" + id }

// Start opens a session for raw and runs the first completeness check.
func (m *Sessions) Start(ctx context.Context, raw domain.RawGuess) (SessionView, error) {
	s := NewSession(m.newID(), m.opts)
	st, err := s.Submit(raw)
	if err != nil {
		return SessionView{}, err
	}
	if err := m.save(ctx, s); err != nil {
		return SessionView{}, err
	}
	return SessionView{ID: s.ID(), Step: st}, nil
}

func (m *Sessions) Get(ctx context.Context, id string) (SessionView, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{ID: id, Step: s.step("")}, nil
}

func (m *Sessions) Answer(ctx context.Context, id, text string) (SessionView, error) {
	return m.update(ctx, id, func(s *Session) (Step, error) { return s.Answer(text) })
}

func (m *Sessions) ReopenNoFlights(ctx context.Context, id string) (SessionView, error) {
	v, err := m.update(ctx, id, (*Session).ReopenNoFlights)
	if err == nil {
		observability.ObserveSession("reopened")
	}
	return v, err
}

// Query returns the validated query of session id.
func (m *Sessions) Query(ctx context.Context, id string) (domain.TripQuery, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return domain.TripQuery{}, err
	}
	return s.Query()
}

func (m *Sessions) Discard(ctx context.Context, id string) error {
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()
	if _, err := m.load(ctx, id); err != nil {
		return err
	}
	if err := m.cache.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("discard session %s: %w", id, err)
	}
	observability.ObserveSession("discarded")
	return nil
}

// update serializes writers of one session within this process.
func (m *Sessions) update(ctx context.Context, id string, fn func(*Session) (Step, error)) (SessionView, error) {
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	st, err := fn(s)
	if err != nil {
		return SessionView{}, err
	}
	if err := m.save(ctx, s); err != nil {
		return SessionView{}, err
	}
	return SessionView{ID: id, Step: st}, nil
}

func (m *Sessions) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}

func (m *Sessions) load(ctx context.Context, id string) (*Session, error) {
	var snap Snapshot
	ok, err := m.cache.Get(ctx, sessionKey(id), &snap)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return RestoreSession(snap, m.opts)
}

func (m *Sessions) save(ctx context.Context, s *Session) error {
	if err := m.cache.Set(ctx, sessionKey(s.ID()), s.Snapshot(), int(m.ttl.Seconds())); err != nil {
		log.Error().Err(err).Str("session", s.ID()).Msg("session save failed")
		return fmt.Errorf("save session %s: %w", s.ID(), err)
	}
	return nil
}
