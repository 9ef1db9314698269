package domain

import "errors"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAccountInactive      = errors.New("account deactivated")
	ErrAccessDenied         = errors.New("access denied to conversation")
	ErrInvalidMessageType   = errors.New("invalid message type")
	ErrEmptyContent         = errors.New("message content is empty")
	ErrPersistence          = errors.New("persistence failure")
	ErrProtocol             = errors.New("protocol error")
	ErrMessageNotFound      = errors.New("message not found")
	ErrRateLimited          = errors.New("rate limited")
)

// Error codes. Informational only; clients key off the message text.
const (
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeInvalidMessageType = "INVALID_MESSAGE_TYPE"
	ErrCodeEmptyContent       = "EMPTY_CONTENT"
	ErrCodePersistence        = "PERSISTENCE_FAILURE"
	ErrCodeProtocol           = "PROTOCOL_ERROR"
	ErrCodeMessageNotFound    = "MESSAGE_NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorFor maps an operation error to the error event sent to its originator.
func ErrorFor(err error) *ErrorMessage {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return NewErrorMessage(ErrCodeAccessDenied, "Access denied to conversation")
	case errors.Is(err, ErrInvalidMessageType):
		return NewErrorMessage(ErrCodeInvalidMessageType, "Invalid message type")
	case errors.Is(err, ErrEmptyContent):
		return NewErrorMessage(ErrCodeEmptyContent, "Message content cannot be empty")
	case errors.Is(err, ErrMessageNotFound):
		return NewErrorMessage(ErrCodeMessageNotFound, "Message not found")
	case errors.Is(err, ErrRateLimited):
		return NewErrorMessage(ErrCodeRateLimited, "Too many messages, slow down")
	case errors.Is(err, ErrProtocol):
		return NewErrorMessage(ErrCodeProtocol, "Invalid message format")
	case errors.Is(err, ErrPersistence):
		return NewErrorMessage(ErrCodePersistence, "Failed to process message")
	default:
		return NewErrorMessage(ErrCodeInternal, "Failed to process message")
	}
}
