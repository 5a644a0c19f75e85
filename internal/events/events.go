// Package events defines the CV lifecycle notifications fanned out to
// listening clients, and the Redis pub/sub publisher feeding the websocket
// layer.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ChannelCV is the Redis pub/sub channel carrying CV lifecycle events.
const ChannelCV = "cv:events"

// Event names. Clients re-fetch their listing on receipt; no payload schema
// beyond the name is required.
const (
	CVCreated = "cvCreated"
	CVUpdated = "cvUpdated"
)

// Message is the wire shape forwarded verbatim over the websocket.
type Message struct {
	Event string `json:"event"`
	CVID  uint   `json:"cvId,omitempty"`
}

// Publisher emits CV lifecycle events. Handlers depend on the interface so
// tests can capture events without Redis.
type Publisher interface {
	PublishCVEvent(ctx context.Context, msg Message) error
}

// RedisPublisher publishes events on the shared Redis channel.
type RedisPublisher struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisPublisher constructs a publisher over an existing Redis client.
func NewRedisPublisher(client redis.UniversalClient, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: client, logger: logger}
}

// PublishCVEvent marshals and publishes the message.
func (p *RedisPublisher) PublishCVEvent(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal cv event: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelCV, data).Err(); err != nil {
		return fmt.Errorf("publish cv event: %w", err)
	}
	p.logger.Info("cv event published",
		slog.String("event", msg.Event),
		slog.Uint64("cv_id", uint64(msg.CVID)),
	)
	return nil
}
