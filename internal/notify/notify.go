// Package notify announces finished scrape batches to other services over
// Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// EventJobsScraped is published after a batch that inserted at least one job.
const EventJobsScraped = "EVENT_JOBS_SCRAPED"

// JobsScraped is the EventJobsScraped payload.
type JobsScraped struct {
	Type       string `json:"type"`
	RunID      string `json:"runId,omitempty"`
	BatchIndex int    `json:"batchIndex"`
	Inserted   int    `json:"inserted"`
	Skipped    int    `json:"skipped"`
	TotalFound int    `json:"totalFound"`
}

// Publisher emits batch events. Delivery is best effort.
type Publisher interface {
	PublishJobsScraped(ctx context.Context, ev JobsScraped) error
}

// RedisPublisher publishes on a Redis channel named after the event type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher wraps an open client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) PublishJobsScraped(ctx context.Context, ev JobsScraped) error {
	ev.Type = EventJobsScraped
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.rdb.Publish(ctx, EventJobsScraped, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish %s", EventJobsScraped)
	}
	return nil
}

// Nop discards events. Used when no Redis URL is configured.
type Nop struct{}

func (Nop) PublishJobsScraped(context.Context, JobsScraped) error { return nil }
