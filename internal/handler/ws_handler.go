package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/weiawesome/jobboard-chat/internal/audit"
	"github.com/weiawesome/jobboard-chat/internal/auth"
	"github.com/weiawesome/jobboard-chat/internal/config"
	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/hub"
	"github.com/weiawesome/jobboard-chat/internal/metrics"
	"github.com/weiawesome/jobboard-chat/internal/service"
	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// Close reasons for rejected handshakes.
const (
	ReasonAuthRequired = "Authentication required"
	ReasonInvalidToken = "Invalid token"
	ReasonDeactivated  = "Account deactivated"
	ReasonServerError  = "Server error"
)

// WSHandler upgrades and authenticates chat connections.
type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	verifier auth.TokenVerifier
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, verifier auth.TokenVerifier, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		wsCfg:    wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(wsCfg.AllowedOrigins),
		},
	}
}

// originChecker allows every origin when none are configured. Requests
// without an Origin header come from non-browser clients and are allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}

func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(h.wsCfg.Path, h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades first and authenticates second, so a rejected
// client always sees a close frame with the reason.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := log.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context ends with this handler; the connection outlives it.
	baseCtx := log.WithLogger(context.Background(), l)

	identity, err := h.authenticate(baseCtx, auth.TokenFromRequest(r))
	if err != nil {
		code, reason := closeFor(err)
		if code == websocket.CloseInternalServerErr {
			l.Error().Err(err).Msg("token verification failed")
		}
		metrics.AuthFailures.WithLabelValues(reason).Inc()
		audit.LogWithDetail(baseCtx, audit.ActionAuthFailed, "", reason, "websocket handshake rejected")
		h.reject(conn, code, reason)
		return
	}

	session := domain.NewSession(uuid.New().String(), identity.UserID, identity.Email, identity.Role)
	logger := l.With().
		Str(log.FieldClientID, session.ID).
		Str(log.FieldUserID, identity.UserID).
		Logger()
	client := hub.NewClient(conn, session, h.wsCfg, logger)

	go client.WritePump()

	ctx := client.Context(context.Background())
	if err := h.service.HandleConnect(ctx, client); err != nil {
		logger.Error().Err(err).Msg("failed to register connection")
		client.Close(websocket.CloseInternalServerErr, ReasonServerError)
		h.service.HandleDisconnect(ctx, client)
		return
	}

	go client.ReadPump(h.handleMessage, h.handleClose)
}

var errNoToken = fmt.Errorf("%w: no token supplied", domain.ErrAuthenticationFailed)

// authenticate resolves the token to an active identity.
func (h *WSHandler) authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, errNoToken
	}

	if h.wsCfg.AuthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.wsCfg.AuthTimeout)
		defer cancel()
	}

	identity, err := h.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if !identity.IsActive {
		return nil, fmt.Errorf("%w: user %s", domain.ErrAccountInactive, identity.UserID)
	}
	return identity, nil
}

// closeFor picks the close code and reason a rejected handshake is closed with.
func closeFor(err error) (int, string) {
	switch {
	case errors.Is(err, errNoToken):
		return websocket.ClosePolicyViolation, ReasonAuthRequired
	case errors.Is(err, domain.ErrAccountInactive):
		return websocket.ClosePolicyViolation, ReasonDeactivated
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return websocket.ClosePolicyViolation, ReasonInvalidToken
	default:
		return websocket.CloseInternalServerErr, ReasonServerError
	}
}

func (h *WSHandler) reject(conn *websocket.Conn, code int, reason string) {
	wait := h.wsCfg.WriteWait
	if wait <= 0 {
		wait = time.Second
	}
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wait))
	conn.Close()
}

func (h *WSHandler) handleMessage(c *hub.Client, message []byte) {
	ctx := c.Context(context.Background())

	cmd, err := domain.DecodeCommand(message)
	if err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("rejected inbound frame")
		metrics.RecordCommand("invalid", err)
		h.hub.SendTo(c, domain.ErrorFor(err))
		return
	}

	// Failures are already reported to the client by the service.
	_ = h.service.HandleCommand(ctx, c, cmd)
}

func (h *WSHandler) handleClose(c *hub.Client) {
	ctx := c.Context(context.Background())
	if err := h.service.HandleDisconnect(ctx, c); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("disconnect cleanup failed")
	}
}
