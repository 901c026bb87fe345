// Package redisstate implements the live room state on Redis: member
// counters, the per-room change-notification channel and rate limiting.
package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"study-room/internal/domain"
)

// RedisStateRepository is the Redis implementation of StateRepository.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "sr:"
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key generation helpers ---

func (r *RedisStateRepository) roomMemberCountKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:members", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomEventChannel(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:events", r.keyPrefix, roomID)
}

// --- Member counters ---

func (r *RedisStateRepository) SetMemberCount(ctx context.Context, roomID uint, count int64) error {
	key := r.roomMemberCountKey(roomID)
	if err := r.client.Set(ctx, key, count, 0).Err(); err != nil {
		return fmt.Errorf("redis: set member count for room %d on %s: %w", roomID, key, err)
	}
	return nil
}

func (r *RedisStateRepository) AdjustMemberCount(ctx context.Context, roomID uint, delta int64) (int64, error) {
	key := r.roomMemberCountKey(roomID)
	count, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: adjust member count for room %d on %s: %w", roomID, key, err)
	}
	if count < 0 {
		// A leave event arrived for a counter that was never seeded; clamp.
		if err := r.client.Set(ctx, key, 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis: clamp member count for room %d on %s: %w", roomID, key, err)
		}
		return 0, nil
	}
	return count, nil
}

func (r *RedisStateRepository) GetMemberCount(ctx context.Context, roomID uint) (int64, error) {
	key := r.roomMemberCountKey(roomID)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: get member count for room %d from %s: %w", roomID, key, err)
	}
	count, parseErr := strconv.ParseInt(val, 10, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("redis: parse member count '%s' for room %d: %w", val, roomID, parseErr)
	}
	return count, nil
}

// --- Change notifications ---

func (r *RedisStateRepository) PublishEvent(ctx context.Context, event domain.RoomEvent) error {
	channel := r.roomEventChannel(event.RoomID)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event for room %d: %w", event.RoomID, err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"room_id": event.RoomID,
			"table":   event.Table,
			"op":      event.Op,
			"channel": channel,
		}).WithError(err).Error("Redis publish failed")
		return fmt.Errorf("redis: publish event to %s: %w", channel, err)
	}
	return nil
}

// SubscribeRoom subscribes to the room's channel and decodes messages into
// RoomEvents on a dedicated goroutine. Events that fail to decode are logged
// and skipped; the subscription stays up.
func (r *RedisStateRepository) SubscribeRoom(ctx context.Context, roomID uint) (<-chan domain.RoomEvent, func(), error) {
	channel := r.roomEventChannel(roomID)
	pubsub := r.client.Subscribe(ctx, channel)

	// Force the SUBSCRIBE round trip so a dead connection fails here rather
	// than silently delivering nothing.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis: subscribe to %s: %w", channel, err)
	}

	events := make(chan domain.RoomEvent, 64)
	go func() {
		defer close(events)
		logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "channel": channel})
		for msg := range pubsub.Channel() {
			var event domain.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logCtx.WithError(err).Warn("Dropping undecodable room event")
				continue
			}
			events <- event
		}
		logCtx.Debug("Room event subscription closed")
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Warn("Error closing room subscription")
		}
	}
	return events, cancel, nil
}

// --- Rate limiting ---

// CheckRateLimit uses an INCR+EXPIRE pipeline; INCR is atomic and the
// pipeline keeps the expiry close enough for limiting purposes.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := r.keyPrefix + "ratelimit:" + key

	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit pipeline for %s: %w", fullKey, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit INCR result for %s: %w", fullKey, err)
	}
	return count > int64(limit), nil
}
