package hub

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// CloseReasonSlowConsumer is sent to a client whose send buffer overflowed.
const CloseReasonSlowConsumer = "send buffer full"

// Hub owns the session registry and the room index and fans events out
// over them. stateMu serialises the compound operations that touch both,
// so a displaced connection can never leave memberships behind for its
// replacement.
type Hub struct {
	sessions *SessionRegistry
	rooms    *RoomIndex
	stateMu  sync.Mutex
}

func NewHub(sessions *SessionRegistry, rooms *RoomIndex) *Hub {
	return &Hub{sessions: sessions, rooms: rooms}
}

func (h *Hub) Sessions() *SessionRegistry { return h.sessions }
func (h *Hub) Rooms() *RoomIndex          { return h.rooms }

// Attach registers conn as the user's live connection. If another
// connection was displaced it is returned with the rooms it was removed
// from; the caller announces the departures and closes it.
func (h *Hub) Attach(conn Connection) (Connection, []string) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	prev := h.sessions.Register(conn.UserID(), conn)
	if prev == nil {
		return nil, nil
	}
	return prev, h.rooms.LeaveAll(conn.UserID())
}

// Detach removes conn and all of its memberships. ok is false when conn
// had already been displaced, in which case nothing is touched.
func (h *Hub) Detach(conn Connection) (rooms []string, ok bool) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if !h.sessions.Unregister(conn.UserID(), conn) {
		return nil, false
	}
	return h.rooms.LeaveAll(conn.UserID()), true
}

// JoinIfCurrent adds conn's user to the room only while conn is still the
// registered connection for that user.
func (h *Hub) JoinIfCurrent(conn Connection, conversationID string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if !h.sessions.IsCurrent(conn.UserID(), conn) {
		return false
	}
	h.rooms.Join(conversationID, conn.UserID())
	return true
}

// LeaveIfCurrent removes conn's user from the room, reporting whether the
// user was a member.
func (h *Hub) LeaveIfCurrent(conn Connection, conversationID string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if !h.sessions.IsCurrent(conn.UserID(), conn) {
		return false
	}
	return h.rooms.Leave(conversationID, conn.UserID())
}

// Broadcast encodes message once and queues it for every member of the
// room except excludeUserID. It returns the number of connections reached.
func (h *Hub) Broadcast(conversationID string, message interface{}, excludeUserID string) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}
	return h.BroadcastRaw(conversationID, data, excludeUserID), nil
}

// BroadcastRaw is Broadcast for an already encoded frame. Members are
// resolved at call time.
func (h *Hub) BroadcastRaw(conversationID string, data []byte, excludeUserID string) int {
	delivered := 0
	for _, userID := range h.rooms.MembersOf(conversationID) {
		if userID == excludeUserID {
			continue
		}
		conn, ok := h.sessions.Lookup(userID)
		if !ok {
			continue
		}
		if h.deliver(conn, data) {
			delivered++
		}
	}
	return delivered
}

// SendTo encodes message and queues it for a single connection.
func (h *Hub) SendTo(conn Connection, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	h.deliver(conn, data)
	return nil
}

func (h *Hub) deliver(conn Connection, data []byte) bool {
	if conn.Send(data) {
		return true
	}
	l := log.L()
	l.Warn().
		Str(log.FieldClientID, conn.ID()).
		Str(log.FieldUserID, conn.UserID()).
		Msg("dropping slow connection")
	conn.Close(websocket.CloseTryAgainLater, CloseReasonSlowConsumer)
	return false
}

// CloseAll closes every live connection, used on shutdown.
func (h *Hub) CloseAll(code int, reason string) {
	for _, conn := range h.sessions.Snapshot() {
		conn.Close(code, reason)
	}
}
