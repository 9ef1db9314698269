package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/testutil"
)

func TestGormChatRepository_Conversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)
	testutil.SeedConversation(t, db, "conv-1", true, "user-a", "user-b")
	testutil.SeedConversation(t, db, "conv-2", false, "user-a")

	conv, err := repo.GetConversation(ctx, "conv-1")
	req.NoError(err)
	req.True(conv.IsActive)
	req.True(conv.HasParticipant("user-b"))
	req.False(conv.HasParticipant("user-c"))

	conv, err = repo.GetConversation(ctx, "conv-2")
	req.NoError(err)
	req.False(conv.IsActive)

	_, err = repo.GetConversation(ctx, "missing")
	req.ErrorIs(err, ErrConversationNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	req.NoError(repo.TouchConversation(ctx, "conv-1", at))
	conv, err = repo.GetConversation(ctx, "conv-1")
	req.NoError(err)
	req.NotNil(conv.LastMessageAt)
	req.True(at.Equal(*conv.LastMessageAt))

	req.ErrorIs(repo.TouchConversation(ctx, "missing", at), ErrConversationNotFound)
}

func TestGormChatRepository_CreateMessage_MonotonicIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)

	first := &domain.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "first", MessageType: domain.MessageTypeText}
	second := &domain.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "second", MessageType: domain.MessageTypeText}

	req.NoError(repo.CreateMessage(ctx, first))
	req.NoError(repo.CreateMessage(ctx, second))

	req.NotZero(first.ID)
	req.Greater(uint64(second.ID), uint64(first.ID))
	req.False(first.CreatedAt.IsZero())

	messages, err := repo.ListMessages(ctx, "conv-1", 10)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)

	got, err := repo.GetMessage(ctx, second.ID)
	req.NoError(err)
	req.Equal("second", got.Content)
	req.Equal(domain.MessageTypeText, got.MessageType)

	_, err = repo.GetMessage(ctx, 9999)
	req.ErrorIs(err, ErrMessageNotFound)
}

func TestGormChatRepository_MarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)

	msg := &domain.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "hi", MessageType: domain.MessageTypeText}
	req.NoError(repo.CreateMessage(ctx, msg))
	at := time.Now().UTC()

	// Sender cannot mark own message read
	changed, err := repo.MarkRead(ctx, "conv-1", msg.ID, "user-a", at)
	req.NoError(err)
	req.False(changed)

	// Wrong conversation does not match
	changed, err = repo.MarkRead(ctx, "conv-2", msg.ID, "user-b", at)
	req.NoError(err)
	req.False(changed)

	// Recipient flips it once
	changed, err = repo.MarkRead(ctx, "conv-1", msg.ID, "user-b", at)
	req.NoError(err)
	req.True(changed)

	changed, err = repo.MarkRead(ctx, "conv-1", msg.ID, "user-b", at)
	req.NoError(err)
	req.False(changed)

	got, err := repo.GetMessage(ctx, msg.ID)
	req.NoError(err)
	req.True(got.IsRead)
	req.NotNil(got.ReadAt)
}

func TestGormChatRepository_ListParticipants(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)

	testutil.SeedUser(t, db, "user-a", "Ada", "Lovelace", nil)
	testutil.SeedUser(t, db, "user-b", "Bob", "Stone", map[string]any{"push": false})
	testutil.SeedUser(t, db, "user-c", "Cy", "Young", nil)
	testutil.SeedConversation(t, db, "conv-1", true, "user-a", "user-b", "user-c", "user-ghost")

	participants, err := repo.ListParticipants(ctx, "conv-1", "user-a")
	req.NoError(err)
	req.Len(participants, 2)

	req.Equal("user-b", participants[0].UserID)
	req.Equal("Bob", participants[0].FirstName)
	req.False(participants[0].PushEnabled())

	req.Equal("user-c", participants[1].UserID)
	req.True(participants[1].PushEnabled())

	_, err = repo.ListParticipants(ctx, "missing", "user-a")
	req.ErrorIs(err, ErrConversationNotFound)
}

func TestGormChatRepository_Notifications(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)

	n := &domain.Notification{
		UserID:  "user-b",
		Type:    domain.NotificationTypeNewMessage,
		Title:   "New message from Ada Lovelace",
		Message: "Hello",
		Data:    map[string]any{"conversationId": "conv-1", "senderId": "user-a"},
	}
	req.NoError(repo.CreateNotification(ctx, n))
	req.NotEmpty(n.ID)
	req.False(n.CreatedAt.IsZero())

	list, err := repo.ListNotifications(ctx, "user-b")
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("Hello", list[0].Message)
	req.Equal("conv-1", list[0].Data["conversationId"])
	req.False(list[0].IsRead)

	req.NoError(repo.Ping(ctx))
}

func TestGormChatRepository_GetUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormChatRepository(db)
	testutil.SeedUser(t, db, "user-a", "Ada", "Lovelace", nil)

	u, err := repo.GetUser(ctx, "user-a")
	req.NoError(err)
	req.Equal("Ada Lovelace", u.DisplayName())

	_, err = repo.GetUser(ctx, "nobody")
	req.ErrorIs(err, ErrUserNotFound)
}
