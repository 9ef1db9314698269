package registry

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not registered")

// Registry mirrors which instance holds each user's live connection so
// other services can see chat presence.
type Registry interface {
	Register(ctx context.Context, userID string) error
	Deregister(ctx context.Context, userID string) error
	// Lookup returns the instance ID holding the user's connection, or
	// ErrNotFound.
	Lookup(ctx context.Context, userID string) (string, error)
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}

// NoopRegistry is used when the Redis mirror is disabled.
type NoopRegistry struct{}

func (NoopRegistry) Register(context.Context, string) error   { return nil }
func (NoopRegistry) Deregister(context.Context, string) error { return nil }
func (NoopRegistry) Lookup(context.Context, string) (string, error) {
	return "", ErrNotFound
}
func (NoopRegistry) StartHeartbeat(context.Context) error { return nil }
func (NoopRegistry) StopHeartbeat()                       {}
func (NoopRegistry) Close() error                         { return nil }
