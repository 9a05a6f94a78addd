package player

import (
	"sync"
)

// Registry is the process-wide keyed store of playback sessions.
// Sessions are created lazily on first access and live for the process
// lifetime; leaving a voice channel only detaches the session's link.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	resolver      Resolver
	presence      Presence
	defaultVolume float64
}

// NewRegistry creates an empty session registry.
func NewRegistry(resolver Resolver, presence Presence, defaultVolume float64) *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		resolver:      resolver,
		presence:      presence,
		defaultVolume: defaultVolume,
	}
}

// GetOrCreate returns the session for the given key, creating it on
// first access.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another caller may have created it.
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id, r.resolver, r.presence, r.defaultVolume)
	r.sessions[id] = s
	return s
}

// Get returns the session for the given key if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// All returns all known sessions.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of known sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
