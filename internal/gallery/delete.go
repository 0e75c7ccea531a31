package gallery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"artgallery/internal/events"
	"artgallery/internal/models"
)

// DeleteAsset removes an asset with its likes, comments and projection.
// Files are removed after commit; a failed removal is handed to the worker.
func (c *Coordinator) DeleteAsset(ctx context.Context, assetID, userID string) error {
	if _, err := c.ownedAsset(ctx, assetID, userID); err != nil {
		return err
	}

	var (
		deleted   models.Asset
		wasPublic bool
	)
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}
		wasPublic, err = c.destroyProjection(ctx, tx, asset.ID)
		if err != nil {
			return err
		}
		deleted = asset
		return tx.DeleteAsset(ctx, asset.ID)
	})
	if err != nil {
		return err
	}

	c.log.Info().Str("asset_id", deleted.ID).Bool("was_public", wasPublic).Msg("asset deleted")
	c.removeFiles(ctx, deleted)
	c.emit(ctx, events.TypeDeleted, deleted, "")
	return nil
}

func (c *Coordinator) removeFiles(ctx context.Context, asset models.Asset) {
	if c.objects == nil || (asset.ImageKey == "" && asset.ThumbnailKey == "") {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	if asset.ImageKey != "" {
		g.Go(func() error { return c.objects.RemoveOriginal(gctx, asset.ImageKey) })
	}
	if asset.ThumbnailKey != "" {
		g.Go(func() error { return c.objects.RemoveThumbnail(gctx, asset.ThumbnailKey) })
	}
	err := g.Wait()
	if err == nil {
		return
	}
	c.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("remove asset files failed, scheduling cleanup")

	task := events.Task{
		Kind:         events.TaskCleanup,
		AssetID:      asset.ID,
		ImageKey:     asset.ImageKey,
		ThumbnailKey: asset.ThumbnailKey,
	}
	if err := c.enqueue(ctx, task); err != nil {
		c.log.Error().Err(err).Str("asset_id", asset.ID).Msg("enqueue cleanup failed")
	}
}
