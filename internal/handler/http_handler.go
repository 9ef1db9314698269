package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/weiawesome/jobboard-chat/internal/auth"
	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/hub"
	"github.com/weiawesome/jobboard-chat/internal/service"
	"github.com/weiawesome/jobboard-chat/pkg/log"
	"github.com/weiawesome/jobboard-chat/pkg/middleware"
	"github.com/weiawesome/jobboard-chat/pkg/response"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Store is the part of the repository the HTTP routes read.
type Store interface {
	Ping(ctx context.Context) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
}

// HTTPHandler serves health, presence, history and notification reads.
type HTTPHandler struct {
	hub      *hub.Hub
	store    Store
	verifier auth.TokenVerifier
	guard    *service.AccessGuard
}

func NewHTTPHandler(h *hub.Hub, store Store, verifier auth.TokenVerifier, guard *service.AccessGuard) *HTTPHandler {
	return &HTTPHandler{
		hub:      h,
		store:    store,
		verifier: verifier,
		guard:    guard,
	}
}

// PresenceResponse lists who is currently joined to a conversation.
type PresenceResponse struct {
	ConversationID string   `json:"conversationId"`
	Members        []string `json:"members"`
	Count          int      `json:"count"`
}

type HistoryResponse struct {
	ConversationID string                  `json:"conversationId"`
	Messages       []domain.MessagePayload `json:"messages"`
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequireAuth(h.authenticate))
	api.HandleFunc("/conversations/{conversation_id}/presence", h.GetPresence).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{conversation_id}/messages", h.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
}

func (h *HTTPHandler) authenticate(r *http.Request) (*middleware.Principal, error) {
	identity, err := h.verifier.Verify(r.Context(), auth.TokenFromRequest(r))
	if errors.Is(err, domain.ErrAuthenticationFailed) {
		return nil, fmt.Errorf("%w: %v", middleware.ErrUnauthenticated, err)
	}
	if err != nil {
		return nil, err
	}
	if !identity.IsActive {
		return nil, fmt.Errorf("%w: %w", middleware.ErrForbidden, domain.ErrAccountInactive)
	}
	return &middleware.Principal{UserID: identity.UserID, Email: identity.Email, Role: identity.Role}, nil
}

// authorizeConversation resolves the path conversation and checks the
// caller takes part in it. On failure the response is already written.
func (h *HTTPHandler) authorizeConversation(w http.ResponseWriter, r *http.Request) (string, bool) {
	conversationID := mux.Vars(r)["conversation_id"]
	if conversationID == "" {
		response.BadRequest(w, "conversation_id is required")
		return "", false
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return "", false
	}

	if err := h.guard.Authorize(r.Context(), conversationID, principal.UserID); err != nil {
		if errors.Is(err, domain.ErrAccessDenied) {
			response.Forbidden(w, "access denied to conversation")
			return "", false
		}
		l := log.Ctx(r.Context())
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("conversation authorization failed")
		response.InternalError(w, "failed to authorize conversation")
		return "", false
	}
	return conversationID, true
}

// GetPresence handles GET /api/v1/conversations/{conversation_id}/presence.
// Only participants of the conversation may ask.
func (h *HTTPHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.authorizeConversation(w, r)
	if !ok {
		return
	}

	members := h.hub.Rooms().MembersOf(conversationID)
	response.Success(w, PresenceResponse{
		ConversationID: conversationID,
		Members:        members,
		Count:          len(members),
	})
}

// GetHistory handles GET /api/v1/conversations/{conversation_id}/messages.
// It returns the latest messages, oldest first. limit defaults to 50.
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	conversationID, ok := h.authorizeConversation(w, r)
	if !ok {
		return
	}

	messages, err := h.store.ListMessages(r.Context(), conversationID, limit)
	if err != nil {
		response.InternalError(w, "failed to load messages")
		return
	}

	payloads := make([]domain.MessagePayload, len(messages))
	for i := range messages {
		payloads[i] = domain.NewMessagePayload(&messages[i])
	}
	response.Success(w, HistoryResponse{ConversationID: conversationID, Messages: payloads})
}

// ListNotifications handles GET /api/v1/notifications for the caller.
func (h *HTTPHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	notifications, err := h.store.ListNotifications(r.Context(), principal.UserID)
	if err != nil {
		response.InternalError(w, "failed to load notifications")
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	response.Success(w, notifications)
}

// HealthCheck handles GET /health.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("health check failed")
		response.ServiceUnavailable(w, "database unreachable")
		return
	}

	response.Success(w, map[string]any{
		"status":      "ok",
		"connections": h.hub.Sessions().Count(),
	})
}
