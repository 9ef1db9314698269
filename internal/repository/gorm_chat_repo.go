package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/pkg/database"
	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// GetConversation retrieves a conversation by ID.
func (r *GormChatRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	l := log.Ctx(ctx)

	var model domain.ConversationModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldConversationID, id).Msg("failed to get conversation")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// TouchConversation updates last_message_at.
func (r *GormChatRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ConversationModel{}).
		Where("id = ?", id).
		Update("last_message_at", at)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldConversationID, id).Msg("failed to touch conversation")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// CreateMessage inserts a message. The store assigns ID and CreatedAt.
func (r *GormChatRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	model := domain.MessageToModel(msg)
	model.ID = 0
	model.IsRead = false
	model.ReadAt = nil
	model.CreatedAt = time.Time{}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldConversationID, msg.ConversationID).Msg("failed to insert message")
		return err
	}

	msg.ID = domain.MessageID(model.ID)
	msg.CreatedAt = model.CreatedAt
	msg.IsRead = false
	msg.ReadAt = nil
	l.Debug().Str(log.FieldMessageID, msg.ID.String()).Msg("message inserted")
	return nil
}

// GetMessage retrieves a message by ID.
func (r *GormChatRepository) GetMessage(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	l := log.Ctx(ctx)

	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", uint64(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldMessageID, id.String()).Msg("failed to get message")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// MarkRead sets is_read/read_at in a single conditional update.
func (r *GormChatRepository) MarkRead(ctx context.Context, conversationID string, id domain.MessageID, readerID string, at time.Time) (bool, error) {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("id = ? AND conversation_id = ? AND sender_id <> ? AND is_read = ?", uint64(id), conversationID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, id.String()).Msg("failed to mark message read")
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListMessages returns the newest messages of a conversation in insertion order.
func (r *GormChatRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	if limit < 1 {
		limit = 50
	}

	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldConversationID, conversationID).Msg("failed to list messages")
		return nil, result.Error
	}

	messages := make([]domain.Message, len(models))
	for i, model := range models {
		messages[len(models)-1-i] = *model.ToDomain()
	}
	return messages, nil
}

// GetUser retrieves a user by ID.
func (r *GormChatRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	l := log.Ctx(ctx)

	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldUserID, id).Msg("failed to get user")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

type participantRow struct {
	ID                      string
	FirstName               string
	LastName                string
	NotificationPreferences database.JSONMap
}

// ListParticipants joins the conversation's participant IDs with users and
// user_profiles. Participants without a users row are skipped.
func (r *GormChatRepository) ListParticipants(ctx context.Context, conversationID, excludeUserID string) ([]domain.Participant, error) {
	l := log.Ctx(ctx)

	conv, err := r.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p != excludeUserID {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []participantRow
	result := r.db.WithContext(ctx).
		Table(domain.UserModel{}.TableName()).
		Select("users.id, users.first_name, users.last_name, user_profiles.notification_preferences").
		Joins("LEFT JOIN user_profiles ON user_profiles.user_id = users.id").
		Where("users.id IN ?", ids).
		Order("users.id").
		Scan(&rows)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldConversationID, conversationID).Msg("failed to list participants")
		return nil, result.Error
	}

	participants := make([]domain.Participant, len(rows))
	for i, row := range rows {
		participants[i] = domain.Participant{
			UserID:      row.ID,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			Preferences: map[string]any(row.NotificationPreferences),
		}
	}
	return participants, nil
}

// CreateNotification inserts a notification record.
func (r *GormChatRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	l := log.Ctx(ctx)

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	model := &domain.NotificationModel{
		ID:      n.ID,
		UserID:  n.UserID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Data:    database.JSONMap(n.Data),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldUserID, n.UserID).Msg("failed to insert notification")
		return err
	}

	n.CreatedAt = model.CreatedAt
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (r *GormChatRepository) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	l := log.Ctx(ctx)

	var models []domain.NotificationModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldUserID, userID).Msg("failed to list notifications")
		return nil, result.Error
	}

	notifications := make([]domain.Notification, len(models))
	for i, model := range models {
		notifications[i] = *model.ToDomain()
	}
	return notifications, nil
}

// Ping checks the underlying connection pool.
func (r *GormChatRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
