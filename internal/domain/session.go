package domain

import (
	"sort"
	"sync"
	"time"
)

// Session is the per-connection state established by the handshake.
// UserID never changes after construction.
type Session struct {
	ID            string
	UserID        string
	Email         string
	Role          string
	ConnectedAt   time.Time
	lastActiveAt  time.Time
	conversations map[string]struct{}
	mu            sync.RWMutex
}

func NewSession(id, userID, email, role string) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		UserID:        userID,
		Email:         email,
		Role:          role,
		ConnectedAt:   now,
		lastActiveAt:  now,
		conversations: make(map[string]struct{}),
	}
}

func (s *Session) Subscribe(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationID] = struct{}{}
}

// Unsubscribe reports whether the conversation was subscribed.
func (s *Session) Unsubscribe(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conversations[conversationID]
	delete(s.conversations, conversationID)
	return ok
}

func (s *Session) IsSubscribed(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[conversationID]
	return ok
}

// Conversations returns the subscribed conversation IDs, sorted.
func (s *Session) Conversations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearConversations drops every subscription and returns what was there.
func (s *Session) ClearConversations() []string {
	ids := s.Conversations()
	s.mu.Lock()
	s.conversations = make(map[string]struct{})
	s.mu.Unlock()
	return ids
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
