// Package gallery owns the lifecycle of gallery assets: visibility
// transitions behind moderation, likes, comments and deletion, with the
// public projection and style counters kept in the same transactions.
package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"artgallery/internal/events"
	"artgallery/internal/ids"
	"artgallery/internal/ledger"
	"artgallery/internal/models"
	"artgallery/internal/moderation"
)

type Deps struct {
	Store     Store
	Moderator Moderator
	Ledger    *ledger.Ledger
	Objects   Objects
	Events    EventPublisher
	Tasks     TaskQueue
	Log       zerolog.Logger
}

type Coordinator struct {
	store     Store
	moderator Moderator
	ledger    *ledger.Ledger
	objects   Objects
	events    EventPublisher
	tasks     TaskQueue
	log       zerolog.Logger
	now       func() time.Time
}

func NewCoordinator(deps Deps) *Coordinator {
	l := deps.Ledger
	if l == nil {
		l = ledger.New(deps.Log)
	}
	return &Coordinator{
		store:     deps.Store,
		moderator: deps.Moderator,
		ledger:    l,
		objects:   deps.Objects,
		events:    deps.Events,
		tasks:     deps.Tasks,
		log:       deps.Log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type Visibility struct {
	IsPublic bool
}

// RequestVisibilityChange moves an asset to the requested visibility. Going
// public runs moderation before any transaction is opened; going private is
// unconditional. Repeating the current visibility is a no-op.
func (c *Coordinator) RequestVisibilityChange(ctx context.Context, assetID, userID string, public bool) (Visibility, error) {
	asset, err := c.ownedAsset(ctx, assetID, userID)
	if err != nil {
		return Visibility{}, err
	}

	state := StateOf(asset)
	next, err := Transition(state, requestFor(public))
	if err != nil {
		return Visibility{}, err
	}
	if next == state {
		return Visibility{IsPublic: asset.IsPublic}, nil
	}

	if next == StatePrivate {
		return c.unpublish(ctx, asset)
	}

	outcome, err := c.review(ctx, asset)
	if err != nil {
		next, _ = Transition(next, EventModerationRejected)
		c.log.Warn().Err(err).Str("asset_id", asset.ID).Str("state", next.String()).Msg("publish aborted")
		return Visibility{IsPublic: false}, err
	}
	if outcome.Flagged {
		next, _ = Transition(next, EventModerationRejected)
		c.log.Info().
			Str("asset_id", asset.ID).
			Str("user_id", userID).
			Str("source", string(outcome.Source)).
			Str("reason", outcome.Reason).
			Msg("publish rejected by moderation")
		return Visibility{IsPublic: false}, &RejectedError{Outcome: outcome}
	}

	if _, err := Transition(next, EventModerationPassed); err != nil {
		return Visibility{}, err
	}
	return c.publish(ctx, asset)
}

// ToggleVisibility flips the current visibility.
func (c *Coordinator) ToggleVisibility(ctx context.Context, assetID, userID string) (Visibility, error) {
	asset, err := c.ownedAsset(ctx, assetID, userID)
	if err != nil {
		return Visibility{}, err
	}
	return c.RequestVisibilityChange(ctx, assetID, userID, !asset.IsPublic)
}

func (c *Coordinator) review(ctx context.Context, asset models.Asset) (moderation.Outcome, error) {
	sub := moderation.Submission{UserID: asset.UserID, Prompt: asset.Prompt, Style: asset.Style}
	if asset.HasImage() {
		if c.objects == nil {
			return moderation.Outcome{}, fmt.Errorf("%w: no file storage", ErrClassifierUnavailable)
		}
		data, err := c.objects.ReadOriginal(ctx, asset.ImageKey)
		if err != nil {
			return moderation.Outcome{}, fmt.Errorf("read image %s: %w", asset.ImageKey, err)
		}
		sub.Image = data
	}
	return c.moderator.Review(ctx, sub)
}

func (c *Coordinator) publish(ctx context.Context, reviewed models.Asset) (Visibility, error) {
	var published models.Asset
	created := false
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, reviewed.ID)
		if err != nil {
			return err
		}
		if contentChanged(reviewed, asset) {
			return fmt.Errorf("%w: asset changed during moderation", ErrConflict)
		}

		_, exists, err := tx.ProjectionForAsset(ctx, asset.ID)
		if err != nil {
			return err
		}
		if !exists {
			if err := c.createProjection(ctx, tx, asset); err != nil {
				return err
			}
			created = true
		}
		if !asset.IsPublic {
			asset.IsPublic = true
			asset.UpdatedAt = c.now()
			if err := tx.UpdateAsset(ctx, asset); err != nil {
				return err
			}
		}
		published = asset
		return nil
	})
	if err != nil {
		return Visibility{}, err
	}

	if created {
		c.log.Info().Str("asset_id", published.ID).Str("style", published.Style).Msg("asset published")
		c.emit(ctx, events.TypePublished, published, "")
	}
	return Visibility{IsPublic: true}, nil
}

func (c *Coordinator) unpublish(ctx context.Context, current models.Asset) (Visibility, error) {
	var removed bool
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, current.ID)
		if err != nil {
			return err
		}
		removed, err = c.destroyProjection(ctx, tx, asset.ID)
		if err != nil {
			return err
		}
		if asset.IsPublic {
			asset.IsPublic = false
			asset.UpdatedAt = c.now()
			return tx.UpdateAsset(ctx, asset)
		}
		return nil
	})
	if err != nil {
		return Visibility{}, err
	}

	if removed {
		c.log.Info().Str("asset_id", current.ID).Msg("asset unpublished")
		c.emit(ctx, events.TypeUnpublished, current, "")
	}
	return Visibility{IsPublic: false}, nil
}

func (c *Coordinator) createProjection(ctx context.Context, tx Tx, asset models.Asset) error {
	projection := models.ProjectionOf(ids.New(), asset, c.now())
	if err := tx.InsertProjection(ctx, projection); err != nil {
		return fmt.Errorf("insert projection: %w", err)
	}
	return c.ledger.ProjectionCreated(ctx, tx, asset.Style)
}

// destroyProjection removes the projection of assetID if there is one.
func (c *Coordinator) destroyProjection(ctx context.Context, tx Tx, assetID string) (bool, error) {
	projection, exists, err := tx.ProjectionForAsset(ctx, assetID)
	if err != nil || !exists {
		return false, err
	}
	if err := tx.DeleteProjection(ctx, projection.ID); err != nil {
		return false, fmt.Errorf("delete projection: %w", err)
	}
	if err := c.ledger.ProjectionDestroyed(ctx, tx, projection.Style); err != nil {
		return false, err
	}
	return true, nil
}

// ownedAsset loads the asset and rejects callers other than its owner.
func (c *Coordinator) ownedAsset(ctx context.Context, assetID, userID string) (models.Asset, error) {
	asset, err := c.store.GetAsset(ctx, assetID)
	if err != nil {
		return models.Asset{}, err
	}
	if asset.UserID != userID {
		return models.Asset{}, ErrForbidden
	}
	return asset, nil
}

func contentChanged(a, b models.Asset) bool {
	return a.UserID != b.UserID ||
		a.Prompt != b.Prompt ||
		a.Style != b.Style ||
		a.ImageKey != b.ImageKey
}

// emit publishes a gallery event after commit. Failures are logged only.
func (c *Coordinator) emit(ctx context.Context, typ events.Type, asset models.Asset, previousStyle string) {
	if c.events == nil {
		return
	}
	err := c.events.Publish(ctx, events.Event{
		Type:          typ,
		AssetID:       asset.ID,
		UserID:        asset.UserID,
		Style:         asset.Style,
		PreviousStyle: previousStyle,
		At:            c.now(),
	})
	if err != nil {
		c.log.Warn().Err(err).Str("asset_id", asset.ID).Str("type", string(typ)).Msg("publish gallery event failed")
	}
}

func (c *Coordinator) enqueue(ctx context.Context, task events.Task) error {
	if c.tasks == nil {
		return errNoTaskQueue
	}
	return c.tasks.Enqueue(ctx, task)
}
