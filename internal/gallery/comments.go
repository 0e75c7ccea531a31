package gallery

import (
	"context"
	"strings"
	"unicode/utf8"

	"artgallery/internal/ids"
	"artgallery/internal/models"
)

const maxCommentLength = 1000

// AddComment posts on a public asset, or on a private one by its owner.
func (c *Coordinator) AddComment(ctx context.Context, assetID, userID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, invalid("content", "required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return models.Comment{}, invalid("content", "at most 1000 characters")
	}

	var comment models.Comment
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.LockAsset(ctx, assetID)
		if err != nil {
			return err
		}
		if !asset.IsPublic && asset.UserID != userID {
			return ErrNotPublic
		}
		now := c.now()
		comment = models.Comment{
			ID:        ids.New(),
			AssetID:   asset.ID,
			UserID:    userID,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.InsertComment(ctx, comment)
	})
	if err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// ListComments returns the comments of an asset the viewer may see. An
// empty viewerID is an anonymous reader.
func (c *Coordinator) ListComments(ctx context.Context, assetID, viewerID string) ([]models.Comment, error) {
	asset, err := c.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsPublic && (viewerID == "" || asset.UserID != viewerID) {
		return nil, ErrNotFound
	}
	return c.store.ListComments(ctx, assetID)
}

// DeleteComment is allowed for the comment author and the asset owner.
func (c *Coordinator) DeleteComment(ctx context.Context, commentID, userID string) error {
	return c.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		comment, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != userID {
			asset, err := tx.LockAsset(ctx, comment.AssetID)
			if err != nil {
				return err
			}
			if asset.UserID != userID {
				return ErrForbidden
			}
		}
		return tx.DeleteComment(ctx, comment.ID)
	})
}
