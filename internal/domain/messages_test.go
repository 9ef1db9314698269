package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_KnownTypes(t *testing.T) {
	req := require.New(t)

	cmd, err := DecodeCommand([]byte(`{"type":"join_conversation","conversationId":"conv-1"}`))
	req.NoError(err)
	join, ok := cmd.(*JoinConversation)
	req.True(ok)
	req.Equal("conv-1", join.ConversationID)

	cmd, err = DecodeCommand([]byte(`{"type":"send_message","conversationId":"conv-1","content":"Hello"}`))
	req.NoError(err)
	send, ok := cmd.(*SendMessage)
	req.True(ok)
	req.Equal("Hello", send.Content)
	req.Empty(send.MessageType)

	cmd, err = DecodeCommand([]byte(`{"type":"read_message","conversationId":"conv-1","messageId":42}`))
	req.NoError(err)
	read, ok := cmd.(*ReadMessage)
	req.True(ok)
	req.Equal(MessageID(42), read.MessageID)

	cmd, err = DecodeCommand([]byte(`{"type":"read_message","conversationId":"conv-1","messageId":"43"}`))
	req.NoError(err)
	req.Equal(MessageID(43), cmd.(*ReadMessage).MessageID)

	cmd, err = DecodeCommand([]byte(`{"type":"typing","conversationId":"conv-1"}`))
	req.NoError(err)
	req.Equal(MsgTypeTyping, cmd.Kind())
	req.Equal("conv-1", cmd.Conversation())
}

func TestDecodeCommand_EmptyContentIsNotAProtocolError(t *testing.T) {
	req := require.New(t)

	// Empty content is rejected later with its own error class.
	cmd, err := DecodeCommand([]byte(`{"type":"send_message","conversationId":"conv-1","content":""}`))
	req.NoError(err)
	req.IsType(&SendMessage{}, cmd)
}

func TestDecodeCommand_ProtocolErrors(t *testing.T) {
	cases := map[string]string{
		"not json":             `{{{`,
		"missing type":         `{"conversationId":"conv-1"}`,
		"unknown type":         `{"type":"delete_everything"}`,
		"missing conversation": `{"type":"join_conversation"}`,
		"bad message id":       `{"type":"read_message","conversationId":"c","messageId":"abc"}`,
		"zero message id":      `{"type":"read_message","conversationId":"c","messageId":0}`,
		"bad file url":         `{"type":"send_message","conversationId":"c","content":"x","fileUrl":"nope"}`,
		"wrong field type":     `{"type":"typing","conversationId":12}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(raw))
			require.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestParseMessageType(t *testing.T) {
	req := require.New(t)

	mt, err := ParseMessageType("")
	req.NoError(err)
	req.Equal(MessageTypeText, mt)

	mt, err = ParseMessageType("image")
	req.NoError(err)
	req.Equal(MessageTypeImage, mt)

	_, err = ParseMessageType("video")
	req.ErrorIs(err, ErrInvalidMessageType)
}

func TestNewMessageMessage_WireShape(t *testing.T) {
	req := require.New(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	data, err := json.Marshal(NewNewMessageMessage(&Message{
		ID:             7,
		ConversationID: "conv-1",
		SenderID:       "user-a",
		Content:        "Hello",
		MessageType:    MessageTypeText,
		CreatedAt:      created,
	}))
	req.NoError(err)

	req.JSONEq(`{
		"type": "new_message",
		"message": {
			"id": "7",
			"conversationId": "conv-1",
			"senderId": "user-a",
			"content": "Hello",
			"messageType": "text",
			"createdAt": "2024-05-01T10:00:00Z"
		}
	}`, string(data))
}

func TestErrorFor(t *testing.T) {
	req := require.New(t)

	msg := ErrorFor(ErrAccessDenied)
	req.Equal(MsgTypeError, msg.Type)
	req.Equal("Access denied to conversation", msg.Message)
	req.Equal(ErrCodeAccessDenied, msg.Code)

	req.Equal(ErrCodeEmptyContent, ErrorFor(ErrEmptyContent).Code)
	req.Equal(ErrCodeInternal, ErrorFor(nil).Code)
}

func TestParticipant_PushEnabled(t *testing.T) {
	req := require.New(t)

	req.True(Participant{}.PushEnabled())
	req.True(Participant{Preferences: map[string]any{"push": true}}.PushEnabled())
	req.True(Participant{Preferences: map[string]any{"push": "no"}}.PushEnabled())
	req.False(Participant{Preferences: map[string]any{"push": false}}.PushEnabled())
}
