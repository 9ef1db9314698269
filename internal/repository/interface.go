package repository

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/jobboard-chat/internal/domain"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")
)

// ChatRepository is the relational store behind the chat service.
type ChatRepository interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	// TouchConversation sets last_message_at.
	TouchConversation(ctx context.Context, id string, at time.Time) error

	// CreateMessage inserts msg and fills in its ID and CreatedAt.
	CreateMessage(ctx context.Context, msg *domain.Message) error
	GetMessage(ctx context.Context, id domain.MessageID) (*domain.Message, error)
	// MarkRead flips the read flag when the reader is not the sender and the
	// message is still unread. It reports whether a row changed.
	MarkRead(ctx context.Context, conversationID string, id domain.MessageID, readerID string, at time.Time) (bool, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	GetUser(ctx context.Context, id string) (*domain.User, error)
	// ListParticipants returns the conversation's participants other than
	// excludeUserID, with their notification preferences.
	ListParticipants(ctx context.Context, conversationID, excludeUserID string) ([]domain.Participant, error)

	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)

	Ping(ctx context.Context) error
}
