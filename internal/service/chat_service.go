package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/jobboard-chat/internal/audit"
	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/hub"
	"github.com/weiawesome/jobboard-chat/internal/metrics"
	"github.com/weiawesome/jobboard-chat/internal/registry"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// CloseReasonReplaced is sent to a connection displaced by a newer one for
// the same user.
const CloseReasonReplaced = "replaced by a new connection"

type chatService struct {
	hub             *hub.Hub
	repo            repository.ChatRepository
	guard           *AccessGuard
	notifier        *Notifier
	throttle        *Throttle
	registry        registry.Registry
	locks           *keyedMutex
	dispatchTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChatService(
	h *hub.Hub,
	repo repository.ChatRepository,
	notifier *Notifier,
	throttle *Throttle,
	reg registry.Registry,
	dispatchTimeout time.Duration,
) ChatService {
	if reg == nil {
		reg = registry.NoopRegistry{}
	}
	return &chatService{
		hub:             h,
		repo:            repo,
		guard:           NewAccessGuard(repo),
		notifier:        notifier,
		throttle:        throttle,
		registry:        reg,
		locks:           newKeyedMutex(),
		dispatchTimeout: dispatchTimeout,
	}
}

func (s *chatService) HandleConnect(ctx context.Context, c Client) error {
	userID := c.UserID()

	prev, rooms := s.hub.Attach(c)
	if prev != nil {
		metrics.ConnectionsReplaced.Inc()
		s.announceLeft(userID, rooms)
		prev.Close(websocket.ClosePolicyViolation, CloseReasonReplaced)
		audit.LogWithDetail(ctx, audit.ActionReplaced, userID, prev.ID(), "previous connection replaced")
	}

	if err := s.registry.Register(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to mirror presence")
	}

	s.updateGauges()
	audit.Log(ctx, audit.ActionConnect, userID, "user connected to chat")

	return s.hub.SendTo(c, domain.NewConnectedMessage(userID))
}

func (s *chatService) HandleCommand(ctx context.Context, c Client, cmd domain.Command) error {
	kind, conversationID := "unknown", ""
	if cmd != nil {
		kind, conversationID = cmd.Kind(), cmd.Conversation()
	}
	ctx = log.With(ctx, log.FieldConversationID, conversationID)

	var err error
	switch cmd := cmd.(type) {
	case *domain.JoinConversation:
		err = s.HandleJoin(ctx, c, cmd.ConversationID)
	case *domain.LeaveConversation:
		err = s.HandleLeave(ctx, c, cmd.ConversationID)
	case *domain.SendMessage:
		err = s.HandleSendMessage(ctx, c, cmd)
	case *domain.Typing:
		err = s.HandleTyping(ctx, c, cmd.ConversationID)
	case *domain.ReadMessage:
		err = s.HandleReadMessage(ctx, c, cmd.ConversationID, cmd.MessageID)
	default:
		err = fmt.Errorf("%w: unsupported command %T", domain.ErrProtocol, cmd)
	}

	metrics.RecordCommand(kind, err)

	if err != nil {
		l := log.Ctx(ctx)
		evt := l.Warn()
		if errors.Is(err, domain.ErrPersistence) {
			evt = l.Error()
		}
		evt.Err(err).Str(log.FieldEvent, kind).Msg("command failed")

		if sendErr := s.hub.SendTo(c, domain.ErrorFor(err)); sendErr != nil {
			return sendErr
		}
	}
	return err
}

func (s *chatService) HandleJoin(ctx context.Context, c Client, conversationID string) error {
	userID := c.UserID()

	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}

	// The connection may have been displaced while the store was queried.
	if !s.hub.JoinIfCurrent(c, conversationID) {
		return nil
	}
	c.Session().Subscribe(conversationID)
	s.updateGauges()

	s.broadcast(ctx, conversationID, domain.NewPresenceMessage(domain.MsgTypeUserJoined, userID, conversationID), userID)
	audit.LogConversation(ctx, audit.ActionJoinConversation, userID, conversationID, "user joined conversation")

	return s.hub.SendTo(c, domain.NewJoinedConversationMessage(conversationID))
}

func (s *chatService) HandleLeave(ctx context.Context, c Client, conversationID string) error {
	userID := c.UserID()

	c.Session().Unsubscribe(conversationID)
	if !s.hub.LeaveIfCurrent(c, conversationID) {
		return nil
	}
	s.updateGauges()

	s.broadcast(ctx, conversationID, domain.NewPresenceMessage(domain.MsgTypeUserLeft, userID, conversationID), userID)
	audit.LogConversation(ctx, audit.ActionLeaveConversation, userID, conversationID, "user left conversation")
	return nil
}

func (s *chatService) HandleSendMessage(ctx context.Context, c Client, cmd *domain.SendMessage) error {
	start := time.Now()
	userID := c.UserID()
	conversationID := cmd.ConversationID

	// A displaced connection may still be draining its read pump.
	if !s.hub.Sessions().IsCurrent(userID, c) {
		return nil
	}
	if !s.throttle.AllowSend(userID) {
		metrics.Throttled.WithLabelValues(domain.MsgTypeSendMessage).Inc()
		return domain.ErrRateLimited
	}

	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}

	if strings.TrimSpace(cmd.Content) == "" {
		return domain.ErrEmptyContent
	}
	msgType, err := domain.ParseMessageType(cmd.MessageType)
	if err != nil {
		return err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        cmd.Content,
		MessageType:    msgType,
	}
	if msgType != domain.MessageTypeText {
		msg.FileURL = cmd.FileURL
		msg.FileName = cmd.FileName
		msg.FileSize = cmd.FileSize
	}

	if err := s.persistAndFanOut(ctx, msg); err != nil {
		return err
	}
	metrics.SendDuration.Observe(time.Since(start).Seconds())
	audit.LogConversation(ctx, audit.ActionSendMessage, userID, conversationID, "message sent")

	s.dispatchNotifications(ctx, msg)
	return nil
}

// persistAndFanOut stores msg and broadcasts it while holding the
// conversation lock, so the order clients observe matches ID order.
func (s *chatService) persistAndFanOut(ctx context.Context, msg *domain.Message) error {
	unlock := s.locks.Lock(msg.ConversationID)
	defer unlock()

	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: create message: %v", domain.ErrPersistence, err)
	}
	metrics.MessagesPersisted.Inc()

	l := log.Ctx(ctx)
	if err := s.repo.TouchConversation(ctx, msg.ConversationID, msg.CreatedAt); err != nil {
		l.Warn().Err(err).Str(log.FieldConversationID, msg.ConversationID).Msg("failed to update last message time")
	}

	n := s.broadcast(ctx, msg.ConversationID, domain.NewNewMessageMessage(msg), "")
	metrics.FanoutRecipients.Observe(float64(n))
	return nil
}

func (s *chatService) dispatchNotifications(ctx context.Context, msg *domain.Message) {
	if s.notifier == nil {
		return
	}

	dctx := context.WithoutCancel(ctx)
	if s.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(dctx, s.dispatchTimeout)
		defer cancel()
	}

	created, err := s.notifier.Dispatch(dctx, msg)
	l := log.Ctx(ctx)
	if err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID.String()).Msg("failed to dispatch notifications")
		return
	}
	if len(created) > 0 {
		l.Debug().Int("count", len(created)).Str(log.FieldMessageID, msg.ID.String()).Msg("offline notifications created")
	}
}

func (s *chatService) HandleTyping(ctx context.Context, c Client, conversationID string) error {
	userID := c.UserID()

	if !s.hub.Sessions().IsCurrent(userID, c) || !s.hub.Rooms().IsMember(conversationID, userID) {
		return nil
	}
	if !s.throttle.AllowTyping(userID, conversationID) {
		metrics.Throttled.WithLabelValues(domain.MsgTypeTyping).Inc()
		return nil
	}

	s.broadcast(ctx, conversationID, domain.NewPresenceMessage(domain.MsgTypeTyping, userID, conversationID), userID)
	return nil
}

func (s *chatService) HandleReadMessage(ctx context.Context, c Client, conversationID string, messageID domain.MessageID) error {
	userID := c.UserID()

	if !s.hub.Sessions().IsCurrent(userID, c) {
		return nil
	}
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}

	msg, err := s.repo.GetMessage(ctx, messageID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return domain.ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: load message: %v", domain.ErrPersistence, err)
	}
	if msg.ConversationID != conversationID {
		return domain.ErrMessageNotFound
	}

	at := time.Now().UTC()
	changed, err := s.repo.MarkRead(ctx, conversationID, messageID, userID, at)
	if err != nil {
		return fmt.Errorf("%w: mark read: %v", domain.ErrPersistence, err)
	}
	if !changed {
		return nil
	}
	msg.IsRead = true
	msg.ReadAt = &at

	s.broadcast(ctx, conversationID, domain.NewMessageReadMessage(msg, userID), "")
	audit.LogWithDetail(ctx, audit.ActionReadMessage, userID, messageID.String(), "message marked read")
	return nil
}

func (s *chatService) HandleDisconnect(ctx context.Context, c Client) error {
	userID := c.UserID()
	c.Session().ClearConversations()

	rooms, ok := s.hub.Detach(c)
	if !ok {
		// Already displaced; the replacement owns the user's state.
		return nil
	}

	s.announceLeft(userID, rooms)
	if err := s.registry.Deregister(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to clear mirrored presence")
	}

	s.updateGauges()
	l := log.Ctx(ctx)
	l.Debug().Time("last_active_at", c.Session().LastActiveAt()).Int("rooms", len(rooms)).Msg("connection closed")
	audit.LogWithDetail(ctx, audit.ActionDisconnect, userID, fmt.Sprintf("rooms=%d", len(rooms)), "user disconnected from chat")
	return nil
}

func (s *chatService) Start(ctx context.Context) error {
	if err := s.registry.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start registry heartbeat: %w", err)
	}

	if s.throttle != nil && s.throttle.idleTTL > 0 {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Add(1)
		go s.sweepLoop(ctx, s.throttle.idleTTL)
	}

	l := log.L()
	l.Info().Msg("chat service started")
	return nil
}

func (s *chatService) sweepLoop(ctx context.Context, every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.throttle.Sweep(); n > 0 {
				l := log.L()
				l.Debug().Int("evicted", n).Msg("evicted idle rate limiters")
			}
		}
	}
}

func (s *chatService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.registry.StopHeartbeat()
	return nil
}

func (s *chatService) authorize(ctx context.Context, userID, conversationID string) error {
	err := s.guard.Authorize(ctx, conversationID, userID)
	if errors.Is(err, domain.ErrAccessDenied) {
		audit.LogConversation(ctx, audit.ActionAccessDenied, userID, conversationID, "conversation access denied")
	}
	return err
}

// announceLeft tells each room the user has gone. The user is no longer a
// member, so nothing is sent back to them.
func (s *chatService) announceLeft(userID string, rooms []string) {
	for _, conversationID := range rooms {
		s.hub.Broadcast(conversationID, domain.NewPresenceMessage(domain.MsgTypeUserLeft, userID, conversationID), userID)
	}
}

func (s *chatService) broadcast(ctx context.Context, conversationID string, message interface{}, excludeUserID string) int {
	n, err := s.hub.Broadcast(conversationID, message, excludeUserID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to encode room event")
	}
	return n
}

func (s *chatService) updateGauges() {
	metrics.ActiveConnections.Set(float64(s.hub.Sessions().Count()))
	metrics.ActiveRooms.Set(float64(s.hub.Rooms().RoomCount()))
}
