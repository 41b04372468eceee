package server

import (
	"sync"

	"github.com/telecine/playcore/internal/player"
)

// registry tracks live playback sessions by ID, bounded by the configured
// session cap.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*player.Session
	max      int
}

func newRegistry(max int) *registry {
	return &registry{
		sessions: make(map[string]*player.Session),
		max:      max,
	}
}

// add registers a session. Returns false when the cap is reached.
func (r *registry) add(s *player.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return false
	}
	r.sessions[s.ID()] = s
	return true
}

// get returns the session with the given ID, or nil.
func (r *registry) get(id string) *player.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// remove unregisters and returns the session, or nil.
func (r *registry) remove(id string) *player.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[id]
	delete(r.sessions, id)
	return s
}

// list returns all registered sessions.
func (r *registry) list() []*player.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*player.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// count returns the number of live sessions.
func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// closeAll tears down every session.
func (r *registry) closeAll() {
	r.mu.Lock()
	sessions := make([]*player.Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
