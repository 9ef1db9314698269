package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_Register_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	conn := newFakeConn("c1", "user-a")

	// Given no user is connected
	req.False(registry.IsOnline("user-a"))

	// When the user registers
	prev := registry.Register("user-a", conn)

	// Then nothing is displaced and the connection resolves
	req.Nil(prev)
	got, ok := registry.Lookup("user-a")
	req.True(ok)
	req.Equal(conn, got)
	req.True(registry.IsOnline("user-a"))
	req.Equal(1, registry.Count())
}

func TestSessionRegistry_Register_ReturnsDisplaced(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	first := newFakeConn("c1", "user-a")
	second := newFakeConn("c2", "user-a")

	registry.Register("user-a", first)

	// When a second connection for the same user registers
	prev := registry.Register("user-a", second)

	// Then the first is handed back and the second is current
	req.Equal(first, prev)
	got, _ := registry.Lookup("user-a")
	req.Equal(second, got)
	req.Equal(1, registry.Count())

	// Registering the same connection twice displaces nothing
	req.Nil(registry.Register("user-a", second))
}

func TestSessionRegistry_Unregister_OnlyCurrent(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	first := newFakeConn("c1", "user-a")
	second := newFakeConn("c2", "user-a")

	registry.Register("user-a", first)
	registry.Register("user-a", second)

	// When the displaced connection unregisters late
	req.False(registry.Unregister("user-a", first))

	// Then the replacement is untouched
	req.True(registry.IsOnline("user-a"))

	req.True(registry.Unregister("user-a", second))
	req.False(registry.IsOnline("user-a"))
	_, ok := registry.Lookup("user-a")
	req.False(ok)

	// Unregistering twice is harmless
	req.False(registry.Unregister("user-a", second))
}

func TestSessionRegistry_ConcurrentRegistrations(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := newFakeConn(fmt.Sprintf("c%d", i), "user-a")
			registry.Register("user-a", conn)
			registry.IsOnline("user-a")
		}(i)
	}
	wg.Wait()

	req.Equal(1, registry.Count())
	req.Len(registry.Snapshot(), 1)
}
