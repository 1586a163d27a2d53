package service

import (
	"context"
	"sync"
	"time"
)

// SessionRegistry keeps each client's live session in memory so transient
// state such as hint visibility survives between requests. Sessions idle for
// longer than the TTL are evicted; their progress is still in storage.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*registeredSession
	idleTTL  time.Duration
	now      func() time.Time
}

type registeredSession struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(idleTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*registeredSession),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Run evicts idle sessions every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// Get returns the client's session and refreshes its idle timer.
func (r *SessionRegistry) Get(clientID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.sessions[clientID]
	if !ok {
		return nil, false
	}
	if r.idle(rs) {
		delete(r.sessions, clientID)
		return nil, false
	}
	rs.lastSeen = r.now()
	return rs.session, true
}

// Put registers sess as the client's session, replacing any previous one.
func (r *SessionRegistry) Put(clientID string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[clientID] = &registeredSession{session: sess, lastSeen: r.now()}
}

// Drop forgets the client's session.
func (r *SessionRegistry) Drop(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, clientID)
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) idle(rs *registeredSession) bool {
	return r.idleTTL > 0 && r.now().Sub(rs.lastSeen) > r.idleTTL
}

func (r *SessionRegistry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rs := range r.sessions {
		if r.idle(rs) {
			delete(r.sessions, id)
		}
	}
}
