package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel - канал Redis по умолчанию
const DefaultChannel = "survey:completed"

// publisher - часть redis.UniversalClient, нужная для публикации
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher публикует событие в канал Redis pub/sub в виде JSON
type RedisPublisher struct {
	client  publisher
	channel string
}

// NewRedisPublisher создает публикатора
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return newRedisPublisher(client, channel)
}

func newRedisPublisher(client publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// SurveyCompleted реализует Notifier
func (p *RedisPublisher) SurveyCompleted(ctx context.Context, event SurveyCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal survey completed event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", p.channel, err)
	}
	return nil
}
