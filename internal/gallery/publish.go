package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"artgallery/internal/events"
	"artgallery/internal/ids"
	"artgallery/internal/models"
	"artgallery/internal/moderation"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxPromptLength      = 4000
)

// Draft is a new asset as received from the creator.
type Draft struct {
	UserID      string
	Prompt      string
	Style       string
	Title       string
	Description string
	Origin      models.ContentOrigin
	// Image and Format are empty for text-only content.
	Image       []byte
	Format      string
	ContentType string
	Publish     bool
}

type Creation struct {
	Asset      models.Asset
	MadePublic bool
	// Reason explains why a requested publish did not happen.
	Reason string
}

// PublishAtCreation stores a new asset and, when requested, makes it public
// in the same transaction if moderation passes. A failed moderation still
// creates the asset as private.
func (c *Coordinator) PublishAtCreation(ctx context.Context, draft Draft) (Creation, error) {
	if err := draft.normalize(); err != nil {
		return Creation{}, err
	}

	now := c.now()
	asset := models.Asset{
		ID:          ids.New(),
		UserID:      draft.UserID,
		Title:       draft.Title,
		Description: draft.Description,
		Prompt:      draft.Prompt,
		Style:       draft.Style,
		Origin:      draft.Origin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var reason string
	if draft.Publish {
		outcome, err := c.moderator.Review(ctx, moderation.Submission{
			UserID: draft.UserID,
			Prompt: draft.Prompt,
			Style:  draft.Style,
			Image:  draft.Image,
		})
		switch {
		case errors.Is(err, ErrClassifierUnavailable):
			reason = ErrClassifierUnavailable.Error()
			c.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("publish at creation aborted, storing private")
		case err != nil:
			return Creation{}, err
		case outcome.Flagged:
			reason = outcome.Reason
			c.log.Info().Str("asset_id", asset.ID).Str("source", string(outcome.Source)).Msg("publish at creation rejected, storing private")
		default:
			asset.IsPublic = true
		}
	}

	if len(draft.Image) > 0 {
		asset.ImageKey = objectKey(asset.ID, draft.Format, now.Format("2006/01/02"))
		if err := c.objects.PutOriginal(ctx, asset.ImageKey, draft.Image, draft.ContentType); err != nil {
			return Creation{}, fmt.Errorf("store original: %w", err)
		}
	}

	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertAsset(ctx, asset); err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		if asset.IsPublic {
			return c.createProjection(ctx, tx, asset)
		}
		return nil
	})
	if err != nil {
		if asset.ImageKey != "" {
			if rmErr := c.objects.RemoveOriginal(ctx, asset.ImageKey); rmErr != nil {
				c.log.Warn().Err(rmErr).Str("key", asset.ImageKey).Msg("remove orphaned original failed")
			}
		}
		return Creation{}, err
	}

	if asset.ImageKey != "" {
		if err := c.enqueue(ctx, events.Task{Kind: events.TaskThumbnail, AssetID: asset.ID, ImageKey: asset.ImageKey}); err != nil {
			c.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("enqueue thumbnail failed")
		}
	}
	if asset.IsPublic {
		c.emit(ctx, events.TypePublished, asset, "")
	}

	return Creation{Asset: asset, MadePublic: asset.IsPublic, Reason: reason}, nil
}

func (d *Draft) normalize() error {
	d.Prompt = strings.TrimSpace(d.Prompt)
	d.Style = strings.ToLower(strings.TrimSpace(d.Style))
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)

	if d.UserID == "" {
		return invalid("user_id", "required")
	}
	if d.Origin == "" {
		d.Origin = models.OriginGenerated
	}
	if !d.Origin.Valid() {
		return invalid("origin", "must be generated, uploaded or stylized-edit")
	}
	if len(d.Image) > 0 && d.Format == "" {
		return invalid("file", "unknown image format")
	}
	return validateText(d.Prompt, d.Style, d.Title, d.Description)
}

func validateText(prompt, style, title, description string) error {
	switch {
	case prompt == "":
		return invalid("prompt", "required")
	case utf8.RuneCountInString(prompt) > maxPromptLength:
		return invalid("prompt", fmt.Sprintf("at most %d characters", maxPromptLength))
	case style == models.AllStyles:
		return invalid("style", "reserved")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return invalid("title", fmt.Sprintf("at most %d characters", maxTitleLength))
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		return invalid("description", fmt.Sprintf("at most %d characters", maxDescriptionLength))
	}
	return nil
}

func objectKey(assetID, format, datePrefix string) string {
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", assetID, format))
}
