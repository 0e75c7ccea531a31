package gallery

import (
	"context"
	"fmt"
	"strings"

	"artgallery/internal/events"
	"artgallery/internal/models"
)

// AssetPatch carries the editable fields; nil leaves a field unchanged.
type AssetPatch struct {
	Title       *string
	Description *string
	Prompt      *string
	Style       *string
}

func (p AssetPatch) apply(asset models.Asset) models.Asset {
	if p.Title != nil {
		asset.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		asset.Description = strings.TrimSpace(*p.Description)
	}
	if p.Prompt != nil {
		asset.Prompt = strings.TrimSpace(*p.Prompt)
	}
	if p.Style != nil {
		asset.Style = strings.ToLower(strings.TrimSpace(*p.Style))
	}
	return asset
}

// UpdateAsset edits an asset. On a public asset the projection follows in the
// same transaction, and new prompt or style text goes through the keyword
// filter first.
func (c *Coordinator) UpdateAsset(ctx context.Context, assetID, userID string, patch AssetPatch) (models.Asset, error) {
	current, err := c.ownedAsset(ctx, assetID, userID)
	if err != nil {
		return models.Asset{}, err
	}

	proposed := patch.apply(current)
	if err := validateText(proposed.Prompt, proposed.Style, proposed.Title, proposed.Description); err != nil {
		return models.Asset{}, err
	}

	textChanged := proposed.Prompt != current.Prompt || proposed.Style != current.Style
	if current.IsPublic && textChanged {
		if outcome := c.moderator.Screen(ctx, userID, proposed.Prompt, proposed.Style); outcome.Flagged {
			return models.Asset{}, &RejectedError{Outcome: outcome}
		}
	}

	var (
		updated  models.Asset
		oldStyle string
	)
	err = c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.IsPublic != current.IsPublic {
			return fmt.Errorf("%w: visibility changed during update", ErrConflict)
		}

		oldStyle = asset.Style
		asset = patch.apply(asset)
		asset.UpdatedAt = c.now()
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		updated = asset

		if !asset.IsPublic {
			return nil
		}
		projection, exists, err := tx.ProjectionForAsset(ctx, asset.ID)
		if err != nil || !exists {
			return err
		}
		projectedStyle := projection.Style
		projection.SyncFrom(asset, asset.UpdatedAt)
		if err := tx.UpdateProjection(ctx, projection); err != nil {
			return err
		}
		return c.ledger.StyleChanged(ctx, tx, projectedStyle, asset.Style)
	})
	if err != nil {
		return models.Asset{}, err
	}

	if updated.IsPublic && updated.Style != oldStyle {
		c.emit(ctx, events.TypeStyleChanged, updated, oldStyle)
	}
	return updated, nil
}
