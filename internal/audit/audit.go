package audit

import (
	"context"

	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// Audit actions for the chat service.
const (
	ActionConnect           = "chat.connect"
	ActionAuthFailed        = "chat.auth_failed"
	ActionReplaced          = "chat.connection_replaced"
	ActionJoinConversation  = "chat.join_conversation"
	ActionAccessDenied      = "chat.access_denied"
	ActionLeaveConversation = "chat.leave_conversation"
	ActionSendMessage       = "chat.send_message"
	ActionReadMessage       = "chat.read_message"
	ActionDisconnect        = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogConversation emits an audit entry scoped to one conversation.
func LogConversation(ctx context.Context, action, userID, conversationID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldConversationID, conversationID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
