// Package domain contains the core business entities and value objects.
package domain

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// sweepInterval is how often the optional TTL sweeper runs.
	sweepInterval = 1 * time.Minute
)

// sessionEntry pairs a conversation with its last access time for TTL eviction.
type sessionEntry struct {
	conv       *Conversation
	lastAccess time.Time
}

// SessionStore is the process-wide mapping from opaque session token to
// Conversation. It lazy-creates a fresh conversation on first access and
// holds no persistence guarantee: a restart loses all conversations.
//
// Eviction of abandoned sessions is a layered concern, disabled by default.
// Long-running deployments without a TTL accumulate state indefinitely; that
// is a documented limitation of the core contract.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	manager *ConversationManager
	ttl     time.Duration
	logger  *slog.Logger
}

// SessionStoreOption is a functional option for configuring SessionStore.
type SessionStoreOption func(*SessionStore)

// WithSessionTTL enables background eviction of sessions idle longer than ttl.
// A ttl of 0 leaves eviction disabled.
func WithSessionTTL(ttl time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) SessionStoreOption {
	return func(s *SessionStore) {
		s.logger = logger
	}
}

// NewSessionStore creates a SessionStore backed by the given manager.
// If a TTL is configured, a background sweeper goroutine is started.
func NewSessionStore(manager *ConversationManager, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		entries: make(map[string]*sessionEntry),
		manager: manager,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		go s.startSweeper()
	}

	return s
}

// Get returns the conversation for the given session token, creating a fresh
// one via the manager if none exists. It never fails. No two tokens share a
// conversation.
func (s *SessionStore) Get(token string) *Conversation {
	s.mu.RLock()
	entry, exists := s.entries[token]
	s.mu.RUnlock()

	if exists {
		s.touch(token)
		return entry.conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock: a concurrent Get may have created it.
	if entry, exists := s.entries[token]; exists {
		entry.lastAccess = time.Now()
		return entry.conv
	}

	conv := s.manager.Create()
	s.entries[token] = &sessionEntry{
		conv:       conv,
		lastAccess: time.Now(),
	}

	s.logger.Debug("session created",
		slog.String("conversation_id", conv.ID),
		slog.Int("sessions", len(s.entries)),
	)

	return conv
}

// Lookup returns the conversation for the token without creating one.
// The answer phase uses this: a token with no conversation (store reset
// between phases) must be reported, not silently recreated.
func (s *SessionStore) Lookup(token string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[token]
	if !exists {
		return nil, false
	}
	return entry.conv, true
}

// Reset removes the token's conversation entirely. A subsequent Get recreates
// fresh greeting state.
func (s *SessionStore) Reset(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}

// Len returns the number of active sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// touch updates the last access time for TTL bookkeeping.
func (s *SessionStore) touch(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.entries[token]; exists {
		entry.lastAccess = time.Now()
	}
}

// startSweeper periodically evicts sessions idle longer than the TTL.
func (s *SessionStore) startSweeper() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.sweep()
	}
}

// sweep removes all expired sessions.
func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	evicted := 0

	for token, entry := range s.entries {
		if now.Sub(entry.lastAccess) >= s.ttl {
			delete(s.entries, token)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Debug("session sweep",
			slog.Int("evicted", evicted),
			slog.Int("remaining", len(s.entries)),
		)
	}
}
