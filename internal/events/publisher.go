package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Publisher struct {
	client      *redis.Client
	eventStream string
	taskStream  string
	log         zerolog.Logger
}

func NewPublisher(client *redis.Client, eventStream, taskStream string, log zerolog.Logger) *Publisher {
	return &Publisher{
		client:      client,
		eventStream: eventStream,
		taskStream:  taskStream,
		log:         log,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if err := p.add(ctx, p.eventStream, event.values()); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) Enqueue(ctx context.Context, task Task) error {
	if err := p.add(ctx, p.taskStream, task.values()); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Kind, err)
	}
	p.log.Debug().Str("type", string(task.Kind)).Str("asset_id", task.AssetID).Msg("task enqueued")
	return nil
}

func (p *Publisher) add(ctx context.Context, stream string, values map[string]any) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	return err
}
