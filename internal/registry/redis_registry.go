package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/jobboard-chat/internal/config"
	"github.com/weiawesome/jobboard-chat/pkg/log"
)

type RedisRegistry struct {
	client            *redis.Client
	instanceID        string
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	managedKeys       map[string]struct{} // keys owned by this instance
	mu                sync.RWMutex
	cancel            context.CancelFunc
}

func NewRedisRegistry(cfg config.RedisConfig, instanceID string) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisRegistryFromClient(client, cfg, instanceID), nil
}

func NewRedisRegistryFromClient(client *redis.Client, cfg config.RedisConfig, instanceID string) *RedisRegistry {
	return &RedisRegistry{
		client:            client,
		instanceID:        instanceID,
		prefix:            cfg.PresencePrefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		managedKeys:       make(map[string]struct{}),
	}
}

func (r *RedisRegistry) keyFor(userID string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, userID)
}

func (r *RedisRegistry) Register(ctx context.Context, userID string) error {
	key := r.keyFor(userID)

	if err := r.client.Set(ctx, key, r.instanceID, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to register user presence: %w", err)
	}

	r.mu.Lock()
	r.managedKeys[key] = struct{}{}
	r.mu.Unlock()

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldUserID, userID).Str("instance_id", r.instanceID).Msg("registered user presence")
	return nil
}

// Deregister removes the key only while this instance still owns it, so a
// reconnect that landed on another instance is not erased.
func (r *RedisRegistry) Deregister(ctx context.Context, userID string) error {
	key := r.keyFor(userID)

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	owner, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user presence: %w", err)
	}
	if owner != r.instanceID {
		return nil
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to deregister user presence: %w", err)
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldUserID, userID).Msg("deregistered user presence")
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID string) (string, error) {
	instance, err := r.client.Get(ctx, r.keyFor(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lookup user presence: %w", err)
	}

	return instance, nil
}

func (r *RedisRegistry) StartHeartbeat(ctx context.Context) error {
	if r.heartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval %s", r.heartbeatInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go r.heartbeatLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("presence heartbeat started")
	return nil
}

func (r *RedisRegistry) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisRegistry) refreshKeys(ctx context.Context) {
	keys := r.managed()
	if len(keys) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, key := range keys {
		pipe.Set(ctx, key, r.instanceID, r.keyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		l := log.L()
		l.Error().Err(err).Int("keys", len(keys)).Msg("failed to refresh presence keys")
	}
}

func (r *RedisRegistry) managed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.managedKeys))
	for k := range r.managedKeys {
		keys = append(keys, k)
	}
	return keys
}

func (r *RedisRegistry) StopHeartbeat() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *RedisRegistry) Close() error {
	r.StopHeartbeat()
	return r.client.Close()
}
