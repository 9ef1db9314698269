package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/metrics"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/pkg/log"
	"github.com/weiawesome/jobboard-chat/pkg/pubsub"
)

const (
	EventNotificationCreated = "notification.created"

	defaultPreviewLength = 100
	unknownSenderName    = "Someone"
)

// NotificationStore is the part of the repository the notifier needs.
type NotificationStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListParticipants(ctx context.Context, conversationID, excludeUserID string) ([]domain.Participant, error)
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// OnlineChecker reports whether a user has a live connection.
type OnlineChecker interface {
	IsOnline(userID string) bool
}

// Notifier records a notification for every participant who is offline
// when a message is sent, then hands each record to the push publisher.
type Notifier struct {
	store         NotificationStore
	online        OnlineChecker
	publisher     pubsub.Publisher
	channel       string
	previewLength int
}

func NewNotifier(store NotificationStore, online OnlineChecker, publisher pubsub.Publisher, channel string, previewLength int) *Notifier {
	if publisher == nil {
		publisher = pubsub.NoopPublisher{}
	}
	if previewLength <= 0 {
		previewLength = defaultPreviewLength
	}
	return &Notifier{
		store:         store,
		online:        online,
		publisher:     publisher,
		channel:       channel,
		previewLength: previewLength,
	}
}

// Dispatch creates notifications for msg. Recipients are processed
// independently; a failure for one is logged and the rest continue. The
// returned error is set only when the participant list cannot be loaded.
func (n *Notifier) Dispatch(ctx context.Context, msg *domain.Message) ([]domain.Notification, error) {
	l := log.Ctx(ctx)

	participants, err := n.store.ListParticipants(ctx, msg.ConversationID, msg.SenderID)
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("participants").Inc()
		return nil, fmt.Errorf("list participants: %w", err)
	}

	title := "New message from " + n.senderName(ctx, msg.SenderID)
	preview := truncateRunes(msg.Content, n.previewLength)

	var created []domain.Notification
	for _, p := range participants {
		if n.online.IsOnline(p.UserID) || !p.PushEnabled() {
			continue
		}

		record := &domain.Notification{
			UserID:  p.UserID,
			Type:    domain.NotificationTypeNewMessage,
			Title:   title,
			Message: preview,
			Data: map[string]any{
				"conversationId": msg.ConversationID,
				"senderId":       msg.SenderID,
				"messageId":      msg.ID.String(),
			},
		}
		if err := n.store.CreateNotification(ctx, record); err != nil {
			metrics.NotificationErrors.WithLabelValues("store").Inc()
			l.Error().Err(err).Str(log.FieldUserID, p.UserID).Msg("failed to create notification")
			continue
		}
		metrics.NotificationsCreated.Inc()
		created = append(created, *record)

		n.publish(ctx, record)
	}

	return created, nil
}

func (n *Notifier) publish(ctx context.Context, record *domain.Notification) {
	l := log.Ctx(ctx)

	evt, err := pubsub.NewEvent(EventNotificationCreated, record.UserID, record)
	if err == nil {
		err = n.publisher.Publish(ctx, n.channel, evt)
	}
	if err != nil {
		metrics.NotificationErrors.WithLabelValues("publish").Inc()
		l.Warn().Err(err).Str(log.FieldUserID, record.UserID).Msg("failed to hand off notification")
	}
}

func (n *Notifier) senderName(ctx context.Context, senderID string) string {
	user, err := n.store.GetUser(ctx, senderID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldUserID, senderID).Msg("failed to load sender name")
		}
		return unknownSenderName
	}
	if name := user.DisplayName(); name != "" {
		return name
	}
	return unknownSenderName
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
