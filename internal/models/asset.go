package models

import "time"

type ContentOrigin string

const (
	OriginGenerated ContentOrigin = "generated"
	OriginUploaded  ContentOrigin = "uploaded"
	OriginStylized  ContentOrigin = "stylized-edit"
)

func (o ContentOrigin) Valid() bool {
	switch o {
	case OriginGenerated, OriginUploaded, OriginStylized:
		return true
	}
	return false
}

// Asset is the private record of one image owned by exactly one user.
// IsPublic is true exactly when a PublicProjection references the asset.
type Asset struct {
	ID           string
	UserID       string
	ImageKey     string
	ThumbnailKey string
	Title        string
	Description  string
	Prompt       string
	Style        string
	Origin       ContentOrigin
	IsPublic     bool
	LikeCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasImage reports whether the asset carries image content; assets without
// one are moderated on their text alone.
func (a Asset) HasImage() bool {
	return a.ImageKey != ""
}

// PublicProjection is the publicly listable copy of a public asset.
// AssetID is nil only on legacy rows.
type PublicProjection struct {
	ID           string
	AssetID      *string
	UserID       string
	ImageKey     string
	ThumbnailKey string
	Title        string
	Description  string
	Prompt       string
	Style        string
	Origin       ContentOrigin
	LikeCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProjectionOf copies the displayable fields of asset into a new projection.
func ProjectionOf(id string, asset Asset, now time.Time) PublicProjection {
	assetID := asset.ID
	return PublicProjection{
		ID:           id,
		AssetID:      &assetID,
		UserID:       asset.UserID,
		ImageKey:     asset.ImageKey,
		ThumbnailKey: asset.ThumbnailKey,
		Title:        asset.Title,
		Description:  asset.Description,
		Prompt:       asset.Prompt,
		Style:        asset.Style,
		Origin:       asset.Origin,
		LikeCount:    asset.LikeCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SyncFrom overwrites the mutable fields with the current asset values.
func (p *PublicProjection) SyncFrom(asset Asset, now time.Time) {
	p.ImageKey = asset.ImageKey
	p.ThumbnailKey = asset.ThumbnailKey
	p.Title = asset.Title
	p.Description = asset.Description
	p.Prompt = asset.Prompt
	p.Style = asset.Style
	p.LikeCount = asset.LikeCount
	p.UpdatedAt = now
}

type Like struct {
	UserID    string
	AssetID   string
	CreatedAt time.Time
}

type Comment struct {
	ID        string
	AssetID   string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
