package service

import (
	"context"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/hub"
)

// Client is an authenticated connection as seen by the service.
type Client interface {
	hub.Connection
	Session() *domain.Session
}

type ChatService interface {
	// HandleConnect installs an authenticated client, displacing any older
	// connection for the same user, and greets it with connected.
	HandleConnect(ctx context.Context, client Client) error
	// HandleCommand runs one decoded command and reports failures to the
	// client as an error event.
	HandleCommand(ctx context.Context, client Client, cmd domain.Command) error
	HandleJoin(ctx context.Context, client Client, conversationID string) error
	HandleLeave(ctx context.Context, client Client, conversationID string) error
	HandleSendMessage(ctx context.Context, client Client, cmd *domain.SendMessage) error
	HandleTyping(ctx context.Context, client Client, conversationID string) error
	HandleReadMessage(ctx context.Context, client Client, conversationID string, messageID domain.MessageID) error
	HandleDisconnect(ctx context.Context, client Client) error
	Start(ctx context.Context) error
	Stop() error
}
