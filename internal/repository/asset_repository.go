package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"artgallery/internal/models"
)

const assetColumns = `
	id, user_id, image_key, thumbnail_key, title, description, prompt, style, origin,
	is_public, like_count, created_at, updated_at
`

func scanAsset(row pgx.Row) (models.Asset, error) {
	var asset models.Asset
	err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&asset.ImageKey,
		&asset.ThumbnailKey,
		&asset.Title,
		&asset.Description,
		&asset.Prompt,
		&asset.Style,
		&asset.Origin,
		&asset.IsPublic,
		&asset.LikeCount,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	return asset, err
}

func (q *queries) GetAsset(ctx context.Context, id string) (models.Asset, error) {
	return q.getAsset(ctx, id, false)
}

func (q *queries) getAsset(ctx context.Context, id string, lock bool) (models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	asset, err := scanAsset(q.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Asset{}, mapError(err, "get asset")
	}
	return asset, nil
}

func (q *queries) InsertAsset(ctx context.Context, asset models.Asset) error {
	const query = `
		INSERT INTO assets (
			id, user_id, image_key, thumbnail_key, title, description, prompt, style, origin,
			is_public, like_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13
		)
	`
	_, err := q.db.Exec(ctx, query,
		asset.ID,
		asset.UserID,
		asset.ImageKey,
		asset.ThumbnailKey,
		asset.Title,
		asset.Description,
		asset.Prompt,
		asset.Style,
		asset.Origin,
		asset.IsPublic,
		asset.LikeCount,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	return mapError(err, "insert asset")
}

func (q *queries) UpdateAsset(ctx context.Context, asset models.Asset) error {
	const query = `
		UPDATE assets
		SET thumbnail_key = $2,
		    title = $3,
		    description = $4,
		    prompt = $5,
		    style = $6,
		    is_public = $7,
		    like_count = $8,
		    updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query,
		asset.ID,
		asset.ThumbnailKey,
		asset.Title,
		asset.Description,
		asset.Prompt,
		asset.Style,
		asset.IsPublic,
		asset.LikeCount,
	)
	if err != nil {
		return mapError(err, "update asset")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "update asset")
	}
	return nil
}

func (q *queries) DeleteAsset(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete asset")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "delete asset")
	}
	return nil
}

func (q *queries) ListAssetsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + `
		FROM assets WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return q.listAssets(ctx, query, userID, limit, offset)
}

func (q *queries) ListAssetsMissingThumbnails(ctx context.Context, limit int) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + `
		FROM assets WHERE image_key <> '' AND thumbnail_key = ''
		ORDER BY id
		LIMIT $1`
	return q.listAssets(ctx, query, limit)
}

func (q *queries) listAssets(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list assets")
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, mapError(err, "scan asset")
		}
		assets = append(assets, asset)
	}
	return assets, mapError(rows.Err(), "list assets")
}
