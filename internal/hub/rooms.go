package hub

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// RoomIndex tracks which users currently listen to which conversation.
// byUser is the reverse index that keeps LeaveAll proportional to the
// number of rooms the user joined.
type RoomIndex struct {
	rooms  map[string]map[string]struct{} // conversationID -> userIDs
	byUser map[string]map[string]struct{} // userID -> conversationIDs
	mu     sync.RWMutex
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:  make(map[string]map[string]struct{}),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (r *RoomIndex) Join(conversationID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[conversationID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[conversationID] = members
	}
	members[userID] = struct{}{}

	joined, ok := r.byUser[userID]
	if !ok {
		joined = make(map[string]struct{})
		r.byUser[userID] = joined
	}
	joined[conversationID] = struct{}{}
}

// Leave reports whether userID was a member. Leaving a room not joined is a no-op.
func (r *RoomIndex) Leave(conversationID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(conversationID, userID)
}

func (r *RoomIndex) leaveLocked(conversationID, userID string) bool {
	members, ok := r.rooms[conversationID]
	if !ok {
		return false
	}
	if _, ok := members[userID]; !ok {
		return false
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, conversationID)
	}

	if joined, ok := r.byUser[userID]; ok {
		delete(joined, conversationID)
		if len(joined) == 0 {
			delete(r.byUser, userID)
		}
	}
	return true
}

// LeaveAll removes userID from every room and returns those rooms, sorted.
func (r *RoomIndex) LeaveAll(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := lo.Keys(r.byUser[userID])
	for _, conversationID := range joined {
		r.leaveLocked(conversationID, userID)
	}
	sort.Strings(joined)
	return joined
}

// MembersOf returns a copy of the room's members; empty if the room is absent.
func (r *RoomIndex) MembersOf(conversationID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := lo.Keys(r.rooms[conversationID])
	sort.Strings(members)
	return members
}

func (r *RoomIndex) IsMember(conversationID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[conversationID][userID]
	return ok
}

// RoomsOf returns the rooms userID has joined, sorted.
func (r *RoomIndex) RoomsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := lo.Keys(r.byUser[userID])
	sort.Strings(rooms)
	return rooms
}

func (r *RoomIndex) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
