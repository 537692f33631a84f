// Package review keeps the operator's in-progress review sessions: the
// uploaded bundle and the option chosen for each section.
package review

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/selection"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = eris.New("review: session not found")

// Session is one review in progress.
type Session struct {
	ID        string
	Bundle    *model.DraftBundle
	Chosen    selection.Chosen
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolved applies the session's choices to its bundle.
func (s *Session) Resolved() selection.ResolvedReport {
	return selection.ResolveBundle(s.Bundle, s.Chosen)
}

// Store holds sessions in memory. It is safe for concurrent use. Sessions
// are never mutated in place: every change swaps in a new value.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Create starts a session for b.
func (s *Store) Create(b *model.DraftBundle) *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Bundle:    b,
		Chosen:    selection.Chosen{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a session by id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Replace swaps the session's bundle wholesale. Choices are reset.
func (s *Store) Replace(id string, b *model.DraftBundle) (*Session, error) {
	return s.update(id, func(cur Session) (Session, error) {
		cur.Bundle = b
		cur.Chosen = selection.Chosen{}
		return cur, nil
	})
}

// AttachDrilldown sets the drill-down table of the session's bundle.
func (s *Store) AttachDrilldown(id string, t *drilldown.Table) (*Session, error) {
	return s.update(id, func(cur Session) (Session, error) {
		b := *cur.Bundle
		b.Drilldown = t
		cur.Bundle = &b
		return cur, nil
	})
}

// Choose records option index for a section.
func (s *Store) Choose(id, sectionID string, index int) (*Session, error) {
	return s.update(id, func(cur Session) (Session, error) {
		next, err := selection.Choose(cur.Chosen, selection.Options(cur.Bundle.OptionsByID()), sectionID, index)
		if err != nil {
			return cur, err
		}
		cur.Chosen = next
		return cur, nil
	})
}

// Delete removes a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// List returns all sessions, newest first.
func (s *Store) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) update(id string, fn func(Session) (Session, error)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := fn(*cur)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	s.sessions[id] = &next
	return &next, nil
}
