package handlers

import (
	"time"

	"artgallery/internal/models"
)

type assetResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Prompt       string    `json:"prompt"`
	Style        string    `json:"style"`
	Origin       string    `json:"origin"`
	Public       bool      `json:"public"`
	LikeCount    int       `json:"likeCount"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type projectionResponse struct {
	ID           string    `json:"id"`
	AssetID      *string   `json:"assetId"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Prompt       string    `json:"prompt"`
	Style        string    `json:"style"`
	Origin       string    `json:"origin"`
	LikeCount    int       `json:"likeCount"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type styleCounterResponse struct {
	Style string `json:"style"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"assetId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h HandlerSet) toAsset(a models.Asset) assetResponse {
	return assetResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Title:        a.Title,
		Description:  a.Description,
		Prompt:       a.Prompt,
		Style:        a.Style,
		Origin:       string(a.Origin),
		Public:       a.IsPublic,
		LikeCount:    a.LikeCount,
		ImageURL:     h.urls.OriginalURL(a.ImageKey),
		ThumbnailURL: h.urls.ThumbnailURL(a.ThumbnailKey),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (h HandlerSet) toProjection(p models.PublicProjection) projectionResponse {
	return projectionResponse{
		ID:           p.ID,
		AssetID:      p.AssetID,
		UserID:       p.UserID,
		Title:        p.Title,
		Description:  p.Description,
		Prompt:       p.Prompt,
		Style:        p.Style,
		Origin:       string(p.Origin),
		LikeCount:    p.LikeCount,
		ImageURL:     h.urls.OriginalURL(p.ImageKey),
		ThumbnailURL: h.urls.ThumbnailURL(p.ThumbnailKey),
		PublishedAt:  p.CreatedAt,
	}
}

func toComment(cm models.Comment) commentResponse {
	return commentResponse{
		ID:        cm.ID,
		AssetID:   cm.AssetID,
		UserID:    cm.UserID,
		Content:   cm.Content,
		CreatedAt: cm.CreatedAt,
	}
}
