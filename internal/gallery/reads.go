package gallery

import (
	"context"
	"strings"

	"artgallery/internal/models"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxPage        = 10000
)

type Page struct {
	Page    int
	PerPage int
}

func (p Page) normalize() (limit, offset int) {
	p.Page = min(max(p.Page, 1), maxPage)
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p.PerPage, (p.Page - 1) * p.PerPage
}

// PublicGallery lists public projections, optionally narrowed to one style.
func (c *Coordinator) PublicGallery(ctx context.Context, style string, page Page) ([]models.PublicProjection, error) {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == models.AllStyles {
		style = ""
	}
	limit, offset := page.normalize()
	return c.store.ListProjections(ctx, style, limit, offset)
}

func (c *Coordinator) StyleCounters(ctx context.Context) ([]models.StyleCounter, error) {
	return c.store.StyleCounters(ctx)
}

func (c *Coordinator) AssetsOf(ctx context.Context, userID string, page Page) ([]models.Asset, error) {
	limit, offset := page.normalize()
	return c.store.ListAssetsByUser(ctx, userID, limit, offset)
}
