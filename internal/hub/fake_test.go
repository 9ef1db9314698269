package hub

import (
	"encoding/json"
	"sync"
)

type fakeConn struct {
	id     string
	userID string
	full   bool

	mu          sync.Mutex
	frames      [][]byte
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }

func (f *fakeConn) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

func (f *fakeConn) Close(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		var m struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(fr, &m)
		out = append(out, m.Type)
	}
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
