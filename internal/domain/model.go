package domain

import (
	"time"

	"github.com/weiawesome/jobboard-chat/pkg/database"
)

// ConversationModel is the GORM model for the conversations table.
type ConversationModel struct {
	ID            string               `gorm:"type:varchar(36);primaryKey"`
	Participants  database.StringArray `gorm:"type:text;not null"`
	ApplicationID *string              `gorm:"type:varchar(36);index"`
	IsActive      bool                 `gorm:"not null;default:true"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (ConversationModel) TableName() string {
	return "conversations"
}

func (m *ConversationModel) ToDomain() *Conversation {
	return &Conversation{
		ID:            m.ID,
		Participants:  []string(m.Participants),
		ApplicationID: m.ApplicationID,
		IsActive:      m.IsActive,
		LastMessageAt: m.LastMessageAt,
		CreatedAt:     m.CreatedAt,
	}
}

// MessageModel is the GORM model for the messages table. The
// auto-increment key is the per-conversation ordering.
type MessageModel struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string    `gorm:"type:varchar(36);not null;index"`
	Content        string    `gorm:"type:text;not null"`
	MessageType    string    `gorm:"type:varchar(20);not null;default:'text'"`
	FileURL        *string   `gorm:"type:text"`
	FileName       *string   `gorm:"type:varchar(255)"`
	FileSize       *int64
	IsRead         bool `gorm:"not null;default:false"`
	ReadAt         *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_conversation_created,priority:2"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:             MessageID(m.ID),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MessageType:    MessageType(m.MessageType),
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

func MessageToModel(m *Message) *MessageModel {
	return &MessageModel{
		ID:             uint64(m.ID),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MessageType:    string(m.MessageType),
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID        string           `gorm:"type:varchar(36);primaryKey"`
	UserID    string           `gorm:"type:varchar(36);not null;index"`
	Type      string           `gorm:"type:varchar(50);not null"`
	Title     string           `gorm:"type:varchar(255);not null"`
	Message   string           `gorm:"type:text"`
	Data      database.JSONMap `gorm:"type:text"`
	IsRead    bool             `gorm:"not null;default:false"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) ToDomain() *Notification {
	return &Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Message:   m.Message,
		Data:      map[string]any(m.Data),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

// UserModel is a read-only view of the users table owned by the job board.
type UserModel struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Email     string `gorm:"type:varchar(255)"`
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	IsActive  bool   `gorm:"not null;default:true"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		IsActive:  m.IsActive,
	}
}

// UserProfileModel is a read-only view of user_profiles.
type UserProfileModel struct {
	UserID                  string           `gorm:"type:varchar(36);primaryKey"`
	NotificationPreferences database.JSONMap `gorm:"type:text"`
}

func (UserProfileModel) TableName() string {
	return "user_profiles"
}

// Models lists every table this service touches, in migration order.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&UserProfileModel{},
		&ConversationModel{},
		&MessageModel{},
		&NotificationModel{},
	}
}
