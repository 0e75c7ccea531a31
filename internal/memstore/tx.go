package memstore

import (
	"context"

	"artgallery/internal/gallery"
	"artgallery/internal/models"
)

// Tx mutates the store directly; the owning WithinTx restores the snapshot
// when the callback fails.
type Tx struct {
	data     *state
	failures map[string]error
}

var _ gallery.Tx = (*Tx)(nil)

func (t *Tx) fail(method string) error {
	return t.failures[method]
}

func (t *Tx) LockAsset(_ context.Context, id string) (models.Asset, error) {
	if err := t.fail("LockAsset"); err != nil {
		return models.Asset{}, err
	}
	asset, ok := t.data.assets[id]
	if !ok {
		return models.Asset{}, notFound("asset", id)
	}
	return asset, nil
}

func (t *Tx) InsertAsset(_ context.Context, asset models.Asset) error {
	if err := t.fail("InsertAsset"); err != nil {
		return err
	}
	if _, exists := t.data.assets[asset.ID]; exists {
		return gallery.ErrConflict
	}
	t.data.assets[asset.ID] = asset
	return nil
}

func (t *Tx) UpdateAsset(_ context.Context, asset models.Asset) error {
	if err := t.fail("UpdateAsset"); err != nil {
		return err
	}
	if _, exists := t.data.assets[asset.ID]; !exists {
		return notFound("asset", asset.ID)
	}
	t.data.assets[asset.ID] = asset
	return nil
}

func (t *Tx) DeleteAsset(_ context.Context, id string) error {
	if err := t.fail("DeleteAsset"); err != nil {
		return err
	}
	if _, exists := t.data.assets[id]; !exists {
		return notFound("asset", id)
	}
	for _, p := range t.data.projections {
		if p.AssetID != nil && *p.AssetID == id {
			return gallery.ErrConflict
		}
	}
	delete(t.data.assets, id)
	for k := range t.data.likes {
		if k.assetID == id {
			delete(t.data.likes, k)
		}
	}
	for k, c := range t.data.comments {
		if c.AssetID == id {
			delete(t.data.comments, k)
		}
	}
	return nil
}

func (t *Tx) ProjectionForAsset(_ context.Context, assetID string) (models.PublicProjection, bool, error) {
	if err := t.fail("ProjectionForAsset"); err != nil {
		return models.PublicProjection{}, false, err
	}
	for _, p := range t.data.projections {
		if p.AssetID != nil && *p.AssetID == assetID {
			return p, true, nil
		}
	}
	return models.PublicProjection{}, false, nil
}

func (t *Tx) InsertProjection(ctx context.Context, projection models.PublicProjection) error {
	if err := t.fail("InsertProjection"); err != nil {
		return err
	}
	if _, exists := t.data.projections[projection.ID]; exists {
		return gallery.ErrConflict
	}
	if projection.AssetID != nil {
		if _, dup, _ := t.ProjectionForAsset(ctx, *projection.AssetID); dup {
			return gallery.ErrConflict
		}
	}
	t.data.projections[projection.ID] = projection
	return nil
}

func (t *Tx) UpdateProjection(_ context.Context, projection models.PublicProjection) error {
	if err := t.fail("UpdateProjection"); err != nil {
		return err
	}
	if _, exists := t.data.projections[projection.ID]; !exists {
		return notFound("projection", projection.ID)
	}
	t.data.projections[projection.ID] = projection
	return nil
}

func (t *Tx) DeleteProjection(_ context.Context, id string) error {
	if err := t.fail("DeleteProjection"); err != nil {
		return err
	}
	delete(t.data.projections, id)
	return nil
}

func (t *Tx) InsertLike(_ context.Context, like models.Like) (bool, error) {
	if err := t.fail("InsertLike"); err != nil {
		return false, err
	}
	key := likeKey{userID: like.UserID, assetID: like.AssetID}
	if _, exists := t.data.likes[key]; exists {
		return false, nil
	}
	t.data.likes[key] = like
	return true, nil
}

func (t *Tx) DeleteLike(_ context.Context, userID, assetID string) (bool, error) {
	if err := t.fail("DeleteLike"); err != nil {
		return false, err
	}
	key := likeKey{userID: userID, assetID: assetID}
	if _, exists := t.data.likes[key]; !exists {
		return false, nil
	}
	delete(t.data.likes, key)
	return true, nil
}

func (t *Tx) GetComment(_ context.Context, id string) (models.Comment, error) {
	if err := t.fail("GetComment"); err != nil {
		return models.Comment{}, err
	}
	comment, ok := t.data.comments[id]
	if !ok {
		return models.Comment{}, notFound("comment", id)
	}
	return comment, nil
}

func (t *Tx) InsertComment(_ context.Context, comment models.Comment) error {
	if err := t.fail("InsertComment"); err != nil {
		return err
	}
	t.data.comments[comment.ID] = comment
	return nil
}

func (t *Tx) DeleteComment(_ context.Context, id string) error {
	if err := t.fail("DeleteComment"); err != nil {
		return err
	}
	delete(t.data.comments, id)
	return nil
}

func (t *Tx) AdjustStyleCount(_ context.Context, style string, delta int) error {
	if err := t.fail("AdjustStyleCount"); err != nil {
		return err
	}
	counter, ok := t.data.counters[style]
	if !ok {
		counter = models.StyleCounter{Style: style, Label: models.StyleLabel(style)}
	}
	counter.Count = max(counter.Count+delta, 0)
	t.data.counters[style] = counter
	return nil
}

// LockCounters only reports injected failures. Memstore transactions are
// already serialised.
func (t *Tx) LockCounters(context.Context) error {
	return t.fail("LockCounters")
}

func (t *Tx) StyleCounters(_ context.Context) ([]models.StyleCounter, error) {
	return sortedCounters(t.data), nil
}

func (t *Tx) CountProjectionsByStyle(_ context.Context) (map[string]int, int, error) {
	counts := map[string]int{}
	for _, p := range t.data.projections {
		if p.Style != "" {
			counts[p.Style]++
		}
	}
	return counts, len(t.data.projections), nil
}

func (t *Tx) SetStyleCount(_ context.Context, style string, count int) error {
	if err := t.fail("SetStyleCount"); err != nil {
		return err
	}
	counter, ok := t.data.counters[style]
	if !ok {
		counter = models.StyleCounter{Style: style, Label: models.StyleLabel(style)}
	}
	counter.Count = count
	t.data.counters[style] = counter
	return nil
}
