package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/repository"
)

// ConversationStore is the part of the repository the guard reads.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
}

// AccessGuard decides whether a user may act on a conversation. Results
// are never cached; every join, send and read asks the store again.
type AccessGuard struct {
	store ConversationStore
}

func NewAccessGuard(store ConversationStore) *AccessGuard {
	return &AccessGuard{store: store}
}

// Authorize returns nil when userID is a participant of an active
// conversation, an error wrapping domain.ErrAccessDenied when it is not,
// or one wrapping domain.ErrPersistence when the store fails.
func (g *AccessGuard) Authorize(ctx context.Context, conversationID, userID string) error {
	conv, err := g.store.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return fmt.Errorf("%w: conversation %s not found", domain.ErrAccessDenied, conversationID)
	}
	if err != nil {
		return fmt.Errorf("%w: load conversation: %v", domain.ErrPersistence, err)
	}
	if !conv.IsActive {
		return fmt.Errorf("%w: conversation %s is inactive", domain.ErrAccessDenied, conversationID)
	}
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("%w: user is not a participant", domain.ErrAccessDenied)
	}
	return nil
}
