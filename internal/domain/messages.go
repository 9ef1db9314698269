package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// WebSocket message types from client.
const (
	MsgTypeJoinConversation  = "join_conversation"
	MsgTypeLeaveConversation = "leave_conversation"
	MsgTypeSendMessage       = "send_message"
	MsgTypeTyping            = "typing"
	MsgTypeReadMessage       = "read_message"
)

// WebSocket message types to client. typing reuses MsgTypeTyping.
const (
	MsgTypeConnected          = "connected"
	MsgTypeJoinedConversation = "joined_conversation"
	MsgTypeUserJoined         = "user_joined"
	MsgTypeUserLeft           = "user_left"
	MsgTypeNewMessage         = "new_message"
	MsgTypeMessageRead        = "message_read"
	MsgTypeError              = "error"
)

var validate = validator.New()

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Command is one decoded client request. The set of implementations is
// closed; handlers switch on the concrete type.
type Command interface {
	Kind() string
	Conversation() string
	command()
}

// Client -> Server messages

type JoinConversation struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type LeaveConversation struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type SendMessage struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
	// Content and MessageType are checked by the pipeline, which reports
	// EmptyContent and InvalidMessageType instead of a protocol error.
	Content     string  `json:"content"`
	MessageType string  `json:"messageType"`
	FileURL     *string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	FileName    *string `json:"fileName,omitempty" validate:"omitempty,max=255"`
	FileSize    *int64  `json:"fileSize,omitempty" validate:"omitempty,gte=0"`
}

type Typing struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type ReadMessage struct {
	ConversationID string    `json:"conversationId" validate:"required,max=64"`
	MessageID      MessageID `json:"messageId" validate:"required"`
}

func (JoinConversation) Kind() string  { return MsgTypeJoinConversation }
func (LeaveConversation) Kind() string { return MsgTypeLeaveConversation }
func (SendMessage) Kind() string       { return MsgTypeSendMessage }
func (Typing) Kind() string            { return MsgTypeTyping }
func (ReadMessage) Kind() string       { return MsgTypeReadMessage }

func (c JoinConversation) Conversation() string  { return c.ConversationID }
func (c LeaveConversation) Conversation() string { return c.ConversationID }
func (c SendMessage) Conversation() string       { return c.ConversationID }
func (c Typing) Conversation() string            { return c.ConversationID }
func (c ReadMessage) Conversation() string       { return c.ConversationID }

func (JoinConversation) command()  {}
func (LeaveConversation) command() {}
func (SendMessage) command()       {}
func (Typing) command()            {}
func (ReadMessage) command()       {}

// DecodeCommand parses one inbound frame. Every failure wraps ErrProtocol.
func DecodeCommand(data []byte) (Command, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("%w: invalid message format", ErrProtocol)
	}

	var cmd Command
	switch base.Type {
	case MsgTypeJoinConversation:
		cmd = &JoinConversation{}
	case MsgTypeLeaveConversation:
		cmd = &LeaveConversation{}
	case MsgTypeSendMessage:
		cmd = &SendMessage{}
	case MsgTypeTyping:
		cmd = &Typing{}
	case MsgTypeReadMessage:
		cmd = &ReadMessage{}
	case "":
		return nil, fmt.Errorf("%w: missing message type", ErrProtocol)
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrProtocol, base.Type)
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("%w: invalid %s message", ErrProtocol, base.Type)
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: invalid %s message: %v", ErrProtocol, base.Type, err)
	}

	return cmd, nil
}

// MessageID is the store-assigned message sequence. It is written as a JSON
// string and accepted as either a string or a number.
type MessageID uint64

func (id MessageID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id MessageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *MessageID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q", s)
	}
	*id = MessageID(v)
	return nil
}

// Server -> Client messages

type ConnectedMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type JoinedConversationMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

// PresenceMessage carries user_joined, user_left and typing.
type PresenceMessage struct {
	Type           string `json:"type"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

type NewMessageMessage struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

type MessagePayload struct {
	ID             MessageID `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	MessageType    string    `json:"messageType"`
	FileURL        *string   `json:"fileUrl,omitempty"`
	FileName       *string   `json:"fileName,omitempty"`
	FileSize       *int64    `json:"fileSize,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type MessageReadMessage struct {
	Type           string    `json:"type"`
	MessageID      MessageID `json:"messageId"`
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	ReadAt         time.Time `json:"readAt"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewConnectedMessage(userID string) *ConnectedMessage {
	return &ConnectedMessage{Type: MsgTypeConnected, UserID: userID}
}

func NewJoinedConversationMessage(conversationID string) *JoinedConversationMessage {
	return &JoinedConversationMessage{Type: MsgTypeJoinedConversation, ConversationID: conversationID}
}

func NewPresenceMessage(msgType, userID, conversationID string) *PresenceMessage {
	return &PresenceMessage{Type: msgType, UserID: userID, ConversationID: conversationID}
}

func NewNewMessageMessage(m *Message) *NewMessageMessage {
	return &NewMessageMessage{Type: MsgTypeNewMessage, Message: NewMessagePayload(m)}
}

func NewMessagePayload(m *Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MessageType:    string(m.MessageType),
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		CreatedAt:      m.CreatedAt,
	}
}

func NewMessageReadMessage(m *Message, readerID string) *MessageReadMessage {
	readAt := time.Time{}
	if m.ReadAt != nil {
		readAt = *m.ReadAt
	}
	return &MessageReadMessage{
		Type:           MsgTypeMessageRead,
		MessageID:      m.ID,
		UserID:         readerID,
		ConversationID: m.ConversationID,
		ReadAt:         readAt,
	}
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
