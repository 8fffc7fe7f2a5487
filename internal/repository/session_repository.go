package repository

import (
	"sync"

	"github.com/careermentor/career-mentor/internal/model"
)

// SessionRepository is the authoritative in-process table of interview
// sessions. Entries are never evicted; they live until the process exits.
// The table lock only guards the map itself - each session carries its
// own mutex, so sessions are independent units of concurrency.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*model.Session)}
}

func (r *SessionRepository) Create(session *model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

func (r *SessionRepository) Get(id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
