package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/weiawesome/jobboard-chat/internal/config"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool lazily creates one token bucket per key.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	limit rate.Limit
	burst int
}

func newLimiterPool(limit rate.Limit, burst int) *limiterPool {
	if burst <= 0 {
		burst = 1
	}
	return &limiterPool{
		m:     make(map[string]*limiterEntry),
		limit: limit,
		burst: burst,
	}
}

func (p *limiterPool) allow(key string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.m[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweep drops buckets untouched since before cutoff.
func (p *limiterPool) sweep(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
			removed++
		}
	}
	return removed
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// Throttle rate limits typing signals per user and conversation, and
// message sends per user. A nil pool allows everything.
type Throttle struct {
	typing  *limiterPool
	send    *limiterPool
	idleTTL time.Duration
	now     func() time.Time
}

func NewThrottle(cfg config.ThrottleConfig) *Throttle {
	t := &Throttle{idleTTL: cfg.IdleTTL, now: time.Now}
	if cfg.TypingInterval > 0 {
		t.typing = newLimiterPool(rate.Every(cfg.TypingInterval), 1)
	}
	if cfg.SendRate > 0 {
		t.send = newLimiterPool(rate.Limit(cfg.SendRate), cfg.SendBurst)
	}
	return t
}

func (t *Throttle) AllowTyping(userID, conversationID string) bool {
	if t == nil || t.typing == nil {
		return true
	}
	return t.typing.allow(userID+"|"+conversationID, t.now())
}

func (t *Throttle) AllowSend(userID string) bool {
	if t == nil || t.send == nil {
		return true
	}
	return t.send.allow(userID, t.now())
}

// Sweep evicts buckets idle for longer than the configured TTL.
func (t *Throttle) Sweep() int {
	if t == nil || t.idleTTL <= 0 {
		return 0
	}
	cutoff := t.now().Add(-t.idleTTL)
	removed := 0
	for _, p := range []*limiterPool{t.typing, t.send} {
		if p != nil {
			removed += p.sweep(cutoff)
		}
	}
	return removed
}
