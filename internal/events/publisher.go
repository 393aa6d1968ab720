// Package events publishes user lifecycle events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/model"
)

const (
	// StreamKey is the Redis stream for user events.
	StreamKey = "stream:user_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond

	// TypeUserCreated marks a newly inserted user.
	TypeUserCreated = "user.created"
)

// Event is the JSON document stored in the stream's payload field.
type Event struct {
	EventID    string     `json:"event_id"`
	Type       string     `json:"type"`
	User       model.User `json:"user"`
	OccurredAt int64      `json:"occurred_at"` // Unix milliseconds
}

// NewUserCreated builds a user.created event stamped at now.
func NewUserCreated(user model.User, now time.Time) Event {
	return Event{
		EventID:    ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Type:       TypeUserCreated,
		User:       user,
		OccurredAt: now.UnixMilli(),
	}
}

// Publisher enqueues user events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPublisher creates a new user event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Publish adds an event to the stream synchronously and returns the stream entry ID.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// UserCreated publishes a user.created event without blocking the caller.
func (p *Publisher) UserCreated(user model.User) {
	p.PublishAsync(NewUserCreated(user, p.now()))
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish user event",
				"event_id", event.EventID,
				"type", event.Type,
				"error", err,
			)
			p.metrics.IncEventPublished(metrics.StatusDropped)
			return
		}

		p.logger.Debug("user event published",
			"event_id", event.EventID,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished(metrics.StatusSuccess)
	}()
}

// Decode parses a stream payload back into an Event.
func Decode(payload string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" || event.EventID == "" {
		return Event{}, fmt.Errorf("decode event: missing type or event_id")
	}
	return event, nil
}
