package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tramline/merch-shop/internal/domain/identity"
)

// cleanupInterval is how often expired sessions are evicted in the background.
const cleanupInterval = time.Minute

var _ identity.Sessions = (*SessionStore)(nil)

// SessionStore holds active sessions in memory with background TTL eviction.
type SessionStore struct {
	mu      sync.RWMutex
	byToken map[string]*identity.Session

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSessionStore creates the store and starts its cleanup goroutine. Call
// Close to stop it.
func NewSessionStore() *SessionStore {
	s := &SessionStore{
		byToken: make(map[string]*identity.Session),
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

func (s *SessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.evictExpired(now)
		case <-s.stop:
			return
		}
	}
}

func (s *SessionStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.byToken {
		if now.After(sess.ExpiresAt) {
			delete(s.byToken, token)
		}
	}
}

// Put stores the session under its token.
func (s *SessionStore) Put(_ context.Context, sess *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[sess.Token] = sess
	return nil
}

// Get returns the session for the token, or identity.ErrSessionExpired when
// the token is unknown.
func (s *SessionStore) Get(_ context.Context, token string) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byToken[token]
	if !ok {
		return nil, identity.ErrSessionExpired
	}
	return sess, nil
}

// Delete removes the session. Unknown tokens are a no-op.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}

// Close stops the cleanup goroutine and waits for it to finish.
func (s *SessionStore) Close() error {
	close(s.stop)
	s.wg.Wait()
	return nil
}
