package session

import "sync"

const DefaultID = "default"

// Registry creates sessions on first use and keeps them for the process lifetime.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, sessions: map[string]*Session{}}
}

// Get returns the session for id, creating it if needed. An empty id means DefaultID.
func (r *Registry) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = New(id, r.deps)
		r.sessions[id] = s
	}
	return s
}

// IDs lists the live sessions.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
