package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "commerce:webhook:event:"

// RedisDeduper shares processed event ids across replicas
type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduper(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// NewRedisClient builds the client backing RedisDeduper
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func eventKey(eventId string) string {
	return redisKeyPrefix + eventId
}

func (d *RedisDeduper) Seen(ctx context.Context, eventId string) (bool, error) {
	n, err := d.client.Exists(ctx, eventKey(eventId)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed uses SET NX so the first writer's timestamp is kept
func (d *RedisDeduper) MarkProcessed(ctx context.Context, eventId string) error {
	if err := d.client.SetNX(ctx, eventKey(eventId), time.Now().UTC().Unix(), d.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}
