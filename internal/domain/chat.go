package domain

import (
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeFile  MessageType = "file"
	MessageTypeImage MessageType = "image"
)

// ParseMessageType validates a client supplied type. Empty means text.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(strings.TrimSpace(s)) {
	case "", MessageTypeText:
		return MessageTypeText, nil
	case MessageTypeFile:
		return MessageTypeFile, nil
	case MessageTypeImage:
		return MessageTypeImage, nil
	default:
		return "", ErrInvalidMessageType
	}
}

// Message is a persisted chat message. ID is assigned by the store and
// orders messages within a conversation.
type Message struct {
	ID             MessageID
	ConversationID string
	SenderID       string
	Content        string
	MessageType    MessageType
	FileURL        *string
	FileName       *string
	FileSize       *int64
	IsRead         bool
	ReadAt         *time.Time
	CreatedAt      time.Time
}

type Conversation struct {
	ID            string
	Participants  []string
	ApplicationID *string
	IsActive      bool
	LastMessageAt *time.Time
	CreatedAt     time.Time
}

// HasParticipant reports whether userID is a persisted participant.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Participant is a conversation member resolved for notification dispatch.
type Participant struct {
	UserID      string
	FirstName   string
	LastName    string
	Preferences map[string]any
}

// PushEnabled is false only when preferences explicitly set push to false.
func (p Participant) PushEnabled() bool {
	v, ok := p.Preferences["push"].(bool)
	return !ok || v
}

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	IsActive  bool
}

// DisplayName is "first last", or empty when neither is known.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

const NotificationTypeNewMessage = "new_message"

// Notification is the out-of-band hand-off record for an offline participant.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}
