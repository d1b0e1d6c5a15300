package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/luckydraw/pkg/logger"
)

// LogSink writes events to the structured log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.NewDefault("events")
	}
	return &LogSink{log: log}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) error {
	s.log.WithContext(ctx).WithField("event", ev.Type).WithFields(ev.Fields).Info("event emitted")
	return nil
}

// RedisSink publishes events as JSON to a redis channel so external
// consumers (dashboards, indexers) can follow draw state.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing to the given channel.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = "luckydraw.events"
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Emit(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
