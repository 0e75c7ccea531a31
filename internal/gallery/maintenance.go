package gallery

import (
	"context"

	"artgallery/internal/events"
	"artgallery/internal/ledger"
)

// AttachThumbnail records a rendered thumbnail on the asset and its
// projection in one transaction.
func AttachThumbnail(ctx context.Context, store Store, assetID, key string) error {
	return store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}
		asset.ThumbnailKey = key
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		projection, exists, err := tx.ProjectionForAsset(ctx, assetID)
		if err != nil || !exists {
			return err
		}
		projection.ThumbnailKey = key
		return tx.UpdateProjection(ctx, projection)
	})
}

// BackfillThumbnails enqueues thumbnail tasks for assets that have an image
// but no thumbnail yet, returning how many were queued.
func BackfillThumbnails(ctx context.Context, store Store, tasks TaskQueue, limit int) (int, error) {
	assets, err := store.ListAssetsMissingThumbnails(ctx, limit)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, asset := range assets {
		task := events.Task{Kind: events.TaskThumbnail, AssetID: asset.ID, ImageKey: asset.ImageKey}
		if err := tasks.Enqueue(ctx, task); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// ReconcileCounters recounts public projections and repairs drifted style
// counters inside one transaction.
func ReconcileCounters(ctx context.Context, store Store, l *ledger.Ledger) ([]ledger.Drift, error) {
	var drifts []ledger.Drift
	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		drifts, err = l.Reconcile(ctx, tx)
		return err
	})
	return drifts, err
}

func (c *Coordinator) ReconcileCounters(ctx context.Context) ([]ledger.Drift, error) {
	return ReconcileCounters(ctx, c.store, c.ledger)
}

func (c *Coordinator) BackfillThumbnails(ctx context.Context, limit int) (int, error) {
	if c.tasks == nil {
		return 0, errNoTaskQueue
	}
	return BackfillThumbnails(ctx, c.store, c.tasks, limit)
}
