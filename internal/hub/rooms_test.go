package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomIndex_Join_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()

	// Given an empty index
	req.Empty(rooms.MembersOf("conv-1"))

	// When a user joins twice
	rooms.Join("conv-1", "user-a")
	rooms.Join("conv-1", "user-a")

	// Then the user is listed once
	req.Equal([]string{"user-a"}, rooms.MembersOf("conv-1"))
	req.True(rooms.IsMember("conv-1", "user-a"))
	req.Equal(1, rooms.RoomCount())
}

func TestRoomIndex_Leave_RemovesEmptyRoom(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()
	rooms.Join("conv-1", "user-a")
	rooms.Join("conv-1", "user-b")

	req.True(rooms.Leave("conv-1", "user-a"))
	req.Equal([]string{"user-b"}, rooms.MembersOf("conv-1"))

	req.True(rooms.Leave("conv-1", "user-b"))
	req.Empty(rooms.MembersOf("conv-1"))
	req.Equal(0, rooms.RoomCount())
	req.Empty(rooms.RoomsOf("user-b"))
}

func TestRoomIndex_Leave_NotJoinedIsNoop(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()
	rooms.Join("conv-1", "user-a")

	// When a user leaves rooms it never joined
	req.False(rooms.Leave("conv-1", "user-z"))
	req.False(rooms.Leave("conv-404", "user-a"))

	// Then membership is unchanged
	req.Equal([]string{"user-a"}, rooms.MembersOf("conv-1"))
}

func TestRoomIndex_LeaveAll(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()
	rooms.Join("conv-1", "user-a")
	rooms.Join("conv-2", "user-a")
	rooms.Join("conv-2", "user-b")

	left := rooms.LeaveAll("user-a")

	req.Equal([]string{"conv-1", "conv-2"}, left)
	req.Empty(rooms.MembersOf("conv-1"))
	req.Equal([]string{"user-b"}, rooms.MembersOf("conv-2"))
	req.Empty(rooms.RoomsOf("user-a"))

	// A user in no rooms leaves nothing
	req.Empty(rooms.LeaveAll("user-a"))
}

func TestRoomIndex_MembersOf_IsACopy(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()
	rooms.Join("conv-1", "user-a")

	members := rooms.MembersOf("conv-1")
	members[0] = "mutated"

	req.Equal([]string{"user-a"}, rooms.MembersOf("conv-1"))
}

func TestRoomIndex_ConcurrentJoinLeave(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomIndex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			for j := 0; j < 10; j++ {
				rooms.Join(fmt.Sprintf("conv-%d", j), user)
			}
			rooms.MembersOf("conv-0")
			rooms.LeaveAll(user)
		}(i)
	}
	wg.Wait()

	req.Equal(0, rooms.RoomCount())
}
