package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "sirenops/pkg/domain"
)

// Redis is a Deduper backed by keys with a TTL. The TTL bounds memory and
// must exceed the dispatcher's maximum redelivery horizon.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "sirenops:dedupe:"}
}

func (d *Redis) Seen(ctx context.Context, eventID id.EventID) (bool, error) {
	err := d.client.Get(ctx, d.prefix+eventID.String()).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedupe get: %w", err)
	}
	return true, nil
}

func (d *Redis) Mark(ctx context.Context, eventID id.EventID) error {
	if err := d.client.Set(ctx, d.prefix+eventID.String(), 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("dedupe set: %w", err)
	}
	return nil
}
