// Package session keeps per-user dashboard selections in memory.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ratiodash/internal/engine"
)

var ErrNotFound = errors.New("session not found")

// Session is one analyst's selection on one dataset.
type Session struct {
	ID        uuid.UUID        `json:"id"`
	Dataset   string           `json:"dataset"`
	Selection engine.Selection `json:"selection"`
	Created   time.Time        `json:"created"`
	LastSeen  time.Time        `json:"last_seen"`
}

func (s *Session) clone() Session {
	c := *s
	c.Selection = s.Selection.Clone()
	return c
}

// Store is a thread-safe map of sessions. Sessions idle longer than the
// TTL are removed by Sweep.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[uuid.UUID]*Session
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create stores sel under a fresh random ID.
func (s *Store) Create(dataset string, sel engine.Selection) Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		Dataset:   dataset,
		Selection: sel.Clone(),
		Created:   now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.clone()
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id uuid.UUID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.LastSeen = s.now()
	return sess.clone(), nil
}

// Update replaces the selection with the result of fn. fn runs under the
// store lock and must not call back into the store. When fn fails the
// session is left unchanged.
func (s *Store) Update(id uuid.UUID, fn func(engine.Selection) (engine.Selection, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	next, err := fn(sess.Selection.Clone())
	if err != nil {
		return Session{}, err
	}
	sess.Selection = next.Clone()
	sess.LastSeen = s.now()
	return sess.clone(), nil
}

func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions last seen before now minus the TTL and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := s.Sweep(t); n > 0 {
				logger.WithFields(logrus.Fields{
					"removed": n,
					"active":  s.Len(),
				}).Info("swept idle sessions")
			}
		}
	}
}
