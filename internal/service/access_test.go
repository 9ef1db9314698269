package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/internal/testutil"
)

type failingStore struct{}

func (failingStore) GetConversation(context.Context, string) (*domain.Conversation, error) {
	return nil, errors.New("connection refused")
}

func TestAccessGuard_Authorize(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	testutil.SeedConversation(t, db, "conv-1", true, "user-a", "user-b")
	testutil.SeedConversation(t, db, "conv-closed", false, "user-a")
	guard := NewAccessGuard(repository.NewGormChatRepository(db))

	tests := []struct {
		name           string
		conversationID string
		userID         string
		wantErr        error
	}{
		{name: "participant", conversationID: "conv-1", userID: "user-a"},
		{name: "not a participant", conversationID: "conv-1", userID: "user-x", wantErr: domain.ErrAccessDenied},
		{name: "inactive conversation", conversationID: "conv-closed", userID: "user-a", wantErr: domain.ErrAccessDenied},
		{name: "missing conversation", conversationID: "nope", userID: "user-a", wantErr: domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Authorize(ctx, tt.conversationID, tt.userID)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccessGuard_StoreFailure(t *testing.T) {
	err := NewAccessGuard(failingStore{}).Authorize(context.Background(), "conv-1", "user-a")
	require.ErrorIs(t, err, domain.ErrPersistence)
	require.NotErrorIs(t, err, domain.ErrAccessDenied)
}
