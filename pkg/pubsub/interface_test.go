package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEvent_RoundTripsPayload(t *testing.T) {
	req := require.New(t)

	evt, err := NewEvent("notification.created", "user-b", map[string]string{"title": "hi"})
	req.NoError(err)
	req.Equal("user-b", evt.Key)
	req.False(evt.Timestamp.IsZero())

	var payload struct {
		Title string `json:"title"`
	}
	req.NoError(evt.UnmarshalPayload(&payload))
	req.Equal("hi", payload.Title)

	_, err = NewEvent("bad", "k", make(chan int))
	req.Error(err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(context.Background(), "ch", &Event{}))
	require.NoError(t, p.Close())
}
