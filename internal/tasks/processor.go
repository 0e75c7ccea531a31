// Package tasks executes media tasks taken off the worker stream.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"artgallery/internal/events"
	"artgallery/internal/gallery"
	"artgallery/internal/storage"
	"artgallery/internal/thumbnail"
)

type Objects interface {
	ReadOriginal(ctx context.Context, key string) ([]byte, error)
	PutThumbnail(ctx context.Context, key string, data []byte) error
	RemoveOriginal(ctx context.Context, key string) error
	RemoveThumbnail(ctx context.Context, key string) error
}

type Renderer interface {
	Render(data []byte) ([]byte, error)
}

// Processor returns nil for tasks that can never succeed so the consumer
// acks them; other errors leave the message pending for a retry.
type Processor struct {
	store    gallery.Store
	objects  Objects
	renderer Renderer
	log      zerolog.Logger
}

func NewProcessor(store gallery.Store, objects Objects, renderer Renderer, log zerolog.Logger) *Processor {
	return &Processor{
		store:    store,
		objects:  objects,
		renderer: renderer,
		log:      log,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := events.ParseTask(msg.Values)
	if err != nil {
		p.log.Warn().Err(err).Str("message_id", msg.ID).Msg("discarding malformed task")
		return nil
	}

	switch task.Kind {
	case events.TaskThumbnail:
		return p.handleThumbnail(ctx, task)
	case events.TaskCleanup:
		return p.handleCleanup(ctx, task)
	}
	return nil
}

func (p *Processor) handleThumbnail(ctx context.Context, task events.Task) error {
	log := p.log.With().Str("asset_id", task.AssetID).Str("image_key", task.ImageKey).Logger()

	data, err := p.objects.ReadOriginal(ctx, task.ImageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		log.Warn().Msg("original gone, skipping thumbnail")
		return nil
	}
	if err != nil {
		return err
	}

	rendered, err := p.renderer.Render(data)
	if errors.Is(err, thumbnail.ErrUnsupportedFormat) {
		log.Info().Msg("no thumbnail for this format")
		return nil
	}
	if err != nil {
		return fmt.Errorf("render thumbnail: %w", err)
	}

	key := thumbnail.Key(task.ImageKey)
	if err := p.objects.PutThumbnail(ctx, key, rendered); err != nil {
		return err
	}

	err = gallery.AttachThumbnail(ctx, p.store, task.AssetID, key)
	if errors.Is(err, gallery.ErrNotFound) {
		log.Info().Msg("asset deleted before thumbnail was attached")
		if rmErr := p.objects.RemoveThumbnail(ctx, key); rmErr != nil {
			log.Warn().Err(rmErr).Msg("remove orphaned thumbnail failed")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("attach thumbnail: %w", err)
	}

	log.Debug().Str("thumbnail_key", key).Int("bytes", len(rendered)).Msg("thumbnail stored")
	return nil
}

func (p *Processor) handleCleanup(ctx context.Context, task events.Task) error {
	g, gctx := errgroup.WithContext(ctx)
	if task.ImageKey != "" {
		g.Go(func() error { return p.objects.RemoveOriginal(gctx, task.ImageKey) })
	}
	if task.ThumbnailKey != "" {
		g.Go(func() error { return p.objects.RemoveThumbnail(gctx, task.ThumbnailKey) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cleanup asset %s: %w", task.AssetID, err)
	}
	p.log.Info().Str("asset_id", task.AssetID).Msg("asset files removed")
	return nil
}
