package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/jobboard-chat/internal/domain"
)

// getAs performs an authenticated GET and decodes the data envelope into out
// when out is not nil.
func (s *testServer) getAs(t *testing.T, userID string, active bool, path string, out any) int {
	t.Helper()

	r, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+s.token(t, userID, active))

	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		body := struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}{Data: out}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.True(t, body.Success)
	}
	return resp.StatusCode
}

func TestHTTP_History(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.connect(t, "user-a")
	send(t, a, map[string]any{"type": "join_conversation", "conversationId": "conv-1"})
	expectEvent(t, a, "joined_conversation")

	for _, content := range []string{"first", "second", "third"} {
		send(t, a, map[string]any{"type": "send_message", "conversationId": "conv-1", "content": content})
		expectEvent(t, a, "new_message")
	}

	// When B reads the latest two messages
	var history HistoryResponse
	code := s.getAs(t, "user-b", true, "/api/v1/conversations/conv-1/messages?limit=2", &history)

	// Then they come back oldest first
	req.Equal(http.StatusOK, code)
	req.Equal("conv-1", history.ConversationID)
	req.Len(history.Messages, 2)
	req.Equal("second", history.Messages[0].Content)
	req.Equal("third", history.Messages[1].Content)
	req.Less(uint64(history.Messages[0].ID), uint64(history.Messages[1].ID))

	req.Equal(http.StatusForbidden, s.getAs(t, "user-c", true, "/api/v1/conversations/conv-1/messages", nil))
	req.Equal(http.StatusBadRequest, s.getAs(t, "user-b", true, "/api/v1/conversations/conv-1/messages?limit=zero", nil))
}

func TestHTTP_Notifications(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.connect(t, "user-a")

	send(t, a, map[string]any{"type": "join_conversation", "conversationId": "conv-1"})
	expectEvent(t, a, "joined_conversation")

	// Given B is offline when A writes
	send(t, a, map[string]any{"type": "send_message", "conversationId": "conv-1", "content": "Are you free Monday?"})
	expectEvent(t, a, "new_message")

	// Frames are handled in order, so this reply means dispatch has finished
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte("{}")))
	expectEvent(t, a, "error")

	// When B lists notifications
	var notifications []domain.Notification
	code := s.getAs(t, "user-b", true, "/api/v1/notifications", &notifications)

	// Then the offline message is there
	req.Equal(http.StatusOK, code)
	req.Len(notifications, 1)
	req.Equal("user-b", notifications[0].UserID)
	req.Equal(domain.NotificationTypeNewMessage, notifications[0].Type)
	req.Equal("New message from Ada Lovelace", notifications[0].Title)
	req.Equal("conv-1", notifications[0].Data["conversationId"])

	// And A, who was online, has none
	var none []domain.Notification
	req.Equal(http.StatusOK, s.getAs(t, "user-a", true, "/api/v1/notifications", &none))
	req.Empty(none)
}

func TestHTTP_DeactivatedAccountIsForbidden(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusForbidden, s.getAs(t, "user-a", false, "/api/v1/notifications", nil))
}

func TestCloseFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{name: "no token", err: errNoToken, code: websocket.ClosePolicyViolation, reason: ReasonAuthRequired},
		{name: "bad token", err: fmt.Errorf("%w: expired", domain.ErrAuthenticationFailed), code: websocket.ClosePolicyViolation, reason: ReasonInvalidToken},
		{name: "inactive", err: fmt.Errorf("%w: user-a", domain.ErrAccountInactive), code: websocket.ClosePolicyViolation, reason: ReasonDeactivated},
		{name: "store down", err: errors.New("connection refused"), code: websocket.CloseInternalServerErr, reason: ReasonServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, reason := closeFor(tt.err)
			require.Equal(t, tt.code, code)
			require.Equal(t, tt.reason, reason)
		})
	}
}
