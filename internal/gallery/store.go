package gallery

import (
	"context"

	"artgallery/internal/events"
	"artgallery/internal/ledger"
	"artgallery/internal/models"
	"artgallery/internal/moderation"
)

// Store is the persistence boundary. Reads outside WithinTx see committed
// data only; every mutation happens inside a transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetUser(ctx context.Context, id string) (models.User, error)
	IncrementFlagCount(ctx context.Context, userID string) (int, error)
	GetAsset(ctx context.Context, id string) (models.Asset, error)
	ListAssetsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Asset, error)
	ListAssetsMissingThumbnails(ctx context.Context, limit int) ([]models.Asset, error)
	// ListProjections returns public projections newest first. An empty
	// style lists all of them.
	ListProjections(ctx context.Context, style string, limit, offset int) ([]models.PublicProjection, error)
	StyleCounters(ctx context.Context) ([]models.StyleCounter, error)
	ListComments(ctx context.Context, assetID string) ([]models.Comment, error)
}

// Tx is one storage transaction. Returning an error from the WithinTx
// callback rolls every statement back.
type Tx interface {
	ledger.Store

	// LockAsset loads the asset and holds its row lock until commit.
	LockAsset(ctx context.Context, id string) (models.Asset, error)
	InsertAsset(ctx context.Context, asset models.Asset) error
	UpdateAsset(ctx context.Context, asset models.Asset) error
	// DeleteAsset removes the asset with its likes and comments.
	DeleteAsset(ctx context.Context, id string) error

	ProjectionForAsset(ctx context.Context, assetID string) (models.PublicProjection, bool, error)
	InsertProjection(ctx context.Context, projection models.PublicProjection) error
	UpdateProjection(ctx context.Context, projection models.PublicProjection) error
	DeleteProjection(ctx context.Context, id string) error

	// InsertLike reports false when the pair already exists.
	InsertLike(ctx context.Context, like models.Like) (bool, error)
	// DeleteLike reports false when there was nothing to delete.
	DeleteLike(ctx context.Context, userID, assetID string) (bool, error)

	GetComment(ctx context.Context, id string) (models.Comment, error)
	InsertComment(ctx context.Context, comment models.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// Objects is the file storage for originals and thumbnails.
type Objects interface {
	PutOriginal(ctx context.Context, key string, data []byte, contentType string) error
	ReadOriginal(ctx context.Context, key string) ([]byte, error)
	RemoveOriginal(ctx context.Context, key string) error
	RemoveThumbnail(ctx context.Context, key string) error
}

type Moderator interface {
	Screen(ctx context.Context, userID, prompt, style string) moderation.Outcome
	Review(ctx context.Context, sub moderation.Submission) (moderation.Outcome, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task events.Task) error
}
