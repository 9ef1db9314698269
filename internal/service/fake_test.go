package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/pkg/pubsub"
)

type fakeClient struct {
	session *domain.Session

	mu          sync.Mutex
	frames      [][]byte
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeClient(id, userID string) *fakeClient {
	return &fakeClient{session: domain.NewSession(id, userID, userID+"@example.com", "candidate")}
}

func (f *fakeClient) ID() string                { return f.session.ID }
func (f *fakeClient) UserID() string            { return f.session.UserID }
func (f *fakeClient) Session() *domain.Session { return f.session }

func (f *fakeClient) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

func (f *fakeClient) Close(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
}

// events decodes every frame received so far.
func (f *fakeClient) events() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		_ = json.Unmarshal(fr, &m)
		out = append(out, m)
	}
	return out
}

func (f *fakeClient) ofType(msgType string) []map[string]any {
	var out []map[string]any
	for _, e := range f.events() {
		if e["type"] == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeClient) types() []string {
	var out []string
	for _, e := range f.events() {
		t, _ := e["type"].(string)
		out = append(out, t)
	}
	return out
}

func (f *fakeClient) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, evt *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []*pubsub.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*pubsub.Event(nil), p.events...)
}

var errStoreDown = errors.New("store unavailable")

// faultyRepo wraps a real repository and fails the selected calls.
type faultyRepo struct {
	repository.ChatRepository

	mu                 sync.Mutex
	failConversation   bool
	failCreateMessage  bool
	failTouch          bool
	failGetMessage     bool
	failNotificationTo map[string]bool
}

func (r *faultyRepo) fail(apply func(*faultyRepo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apply(r)
}

func (r *faultyRepo) check(pick func(*faultyRepo) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pick(r) {
		return errStoreDown
	}
	return nil
}

func (r *faultyRepo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	if err := r.check(func(r *faultyRepo) bool { return r.failConversation }); err != nil {
		return nil, err
	}
	return r.ChatRepository.GetConversation(ctx, id)
}

func (r *faultyRepo) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if err := r.check(func(r *faultyRepo) bool { return r.failCreateMessage }); err != nil {
		return err
	}
	return r.ChatRepository.CreateMessage(ctx, msg)
}

func (r *faultyRepo) TouchConversation(ctx context.Context, id string, at time.Time) error {
	if err := r.check(func(r *faultyRepo) bool { return r.failTouch }); err != nil {
		return err
	}
	return r.ChatRepository.TouchConversation(ctx, id, at)
}

func (r *faultyRepo) GetMessage(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	if err := r.check(func(r *faultyRepo) bool { return r.failGetMessage }); err != nil {
		return nil, err
	}
	return r.ChatRepository.GetMessage(ctx, id)
}

func (r *faultyRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if err := r.check(func(r *faultyRepo) bool { return r.failNotificationTo[n.UserID] }); err != nil {
		return err
	}
	return r.ChatRepository.CreateNotification(ctx, n)
}
