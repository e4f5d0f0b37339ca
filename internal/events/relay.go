package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nick8/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// StreamKey is the Redis stream every instance writes progress events to.
const StreamKey = "progress:events"

// Hub delivers events to the sockets connected to this instance.
type Hub interface {
	Publish(event models.ProgressEvent)
}

// RedisRelay shares progress events between server instances through a Redis
// stream. Each instance tails the stream and hands events to its local hub,
// so a user's sockets get updates no matter which instance logged the meal.
type RedisRelay struct {
	rdb    *redis.Client
	local  Hub
	maxLen int64
}

func NewRedisRelay(rdb *redis.Client, local Hub) *RedisRelay {
	return &RedisRelay{rdb: rdb, local: local, maxLen: 10000}
}

// Publish appends the event to the stream. When Redis is unreachable the
// event is delivered locally only.
func (r *RedisRelay) Publish(event models.ProgressEvent) {
	if r.rdb == nil {
		r.local.Publish(event)
		return
	}

	data, err := encodeEvent(event)
	if err != nil {
		log.WithError(err).Warn("Failed to encode progress event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{"data": data},
		MaxLen: r.maxLen,
		Approx: true,
	}).Err()
	if err != nil {
		log.WithError(err).Warn("Failed to relay progress event, delivering locally")
		r.local.Publish(event)
	}
}

// Run tails the stream until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	if r.rdb == nil {
		return
	}
	lastID := "$"
	for {
		streams, err := r.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{StreamKey, lastID},
			Count:   100,
			Block:   time.Second,
		}).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if err != redis.Nil {
				log.WithError(err).Warn("Progress relay read failed")
				time.Sleep(time.Second)
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				event, err := decodeMessage(message)
				if err != nil {
					log.WithError(err).WithField("id", message.ID).Warn("Skipping malformed progress event")
					continue
				}
				r.local.Publish(event)
			}
		}
	}
}

func encodeEvent(event models.ProgressEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMessage(message redis.XMessage) (models.ProgressEvent, error) {
	raw, ok := message.Values["data"].(string)
	if !ok {
		return models.ProgressEvent{}, fmt.Errorf("invalid message format: missing data field")
	}
	var event models.ProgressEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return models.ProgressEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
