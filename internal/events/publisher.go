package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

const Channel = "forgetrace.events"

const (
	WorkflowStarted      = "workflow.started"
	WorkflowStepRecorded = "workflow.step.recorded"
	WorkflowCancelled    = "workflow.cancelled"
	BatchCreated         = "batch.created"
	BatchCancelled       = "batch.cancelled"
)

// Publisher emits best-effort domain events. Publishing never fails the
// operation that triggered it; failures are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

type envelope struct {
	Event   string      `json:"event"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

type redisPublisher struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisPublisher wraps a redis client as an event publisher. A nil client
// yields a publisher that silently drops everything, so callers never have to
// branch on whether redis is configured.
func NewRedisPublisher(client *redis.Client, baseLog *logger.Logger) Publisher {
	return &redisPublisher{
		client:  client,
		channel: Channel,
		log:     baseLog.With("service", "EventPublisher"),
	}
}

func (p *redisPublisher) Publish(ctx context.Context, event string, payload interface{}) {
	if p == nil || p.client == nil {
		return
	}
	body, err := json.Marshal(envelope{Event: event, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.log.Warn("Failed to marshal event", "event", event, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		p.log.Warn("Failed to publish event", "event", event, "error", err)
	}
}
