package gallery

import (
	"context"

	"artgallery/internal/models"
)

type LikeResult struct {
	LikeCount int
	Liked     bool
}

// ToggleLike sets whether userID likes the asset. The (user, asset) key of
// the like row makes duplicate requests no-ops, so the count moves at most
// once per actual change. Only public assets can be liked; unliking always
// works.
func (c *Coordinator) ToggleLike(ctx context.Context, assetID, userID string, desired bool) (LikeResult, error) {
	var result LikeResult
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}

		delta := 0
		if desired {
			if !asset.IsPublic {
				return ErrNotPublic
			}
			inserted, err := tx.InsertLike(ctx, models.Like{UserID: userID, AssetID: assetID, CreatedAt: c.now()})
			if err != nil {
				return err
			}
			if inserted {
				delta = 1
			}
		} else {
			deleted, err := tx.DeleteLike(ctx, userID, assetID)
			if err != nil {
				return err
			}
			if deleted {
				delta = -1
			}
		}

		result = LikeResult{LikeCount: asset.LikeCount, Liked: desired}
		if delta == 0 {
			return nil
		}

		asset.LikeCount = max(asset.LikeCount+delta, 0)
		asset.UpdatedAt = c.now()
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		result.LikeCount = asset.LikeCount

		projection, exists, err := tx.ProjectionForAsset(ctx, assetID)
		if err != nil || !exists {
			return err
		}
		projection.LikeCount = asset.LikeCount
		projection.UpdatedAt = asset.UpdatedAt
		return tx.UpdateProjection(ctx, projection)
	})
	if err != nil {
		return LikeResult{}, err
	}
	return result, nil
}
