package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"artgallery/internal/models"
)

const projectionColumns = `
	id, asset_id, user_id, image_key, thumbnail_key, title, description, prompt, style, origin,
	like_count, created_at, updated_at
`

func scanProjection(row pgx.Row) (models.PublicProjection, error) {
	var p models.PublicProjection
	err := row.Scan(
		&p.ID,
		&p.AssetID,
		&p.UserID,
		&p.ImageKey,
		&p.ThumbnailKey,
		&p.Title,
		&p.Description,
		&p.Prompt,
		&p.Style,
		&p.Origin,
		&p.LikeCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (q *queries) ProjectionForAsset(ctx context.Context, assetID string) (models.PublicProjection, bool, error) {
	query := `SELECT ` + projectionColumns + ` FROM public_projections WHERE asset_id = $1`
	p, err := scanProjection(q.db.QueryRow(ctx, query, assetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PublicProjection{}, false, nil
	}
	if err != nil {
		return models.PublicProjection{}, false, mapError(err, "get projection")
	}
	return p, true, nil
}

func (q *queries) InsertProjection(ctx context.Context, p models.PublicProjection) error {
	const query = `
		INSERT INTO public_projections (
			id, asset_id, user_id, image_key, thumbnail_key, title, description, prompt, style, origin,
			like_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13
		)
	`
	_, err := q.db.Exec(ctx, query,
		p.ID,
		p.AssetID,
		p.UserID,
		p.ImageKey,
		p.ThumbnailKey,
		p.Title,
		p.Description,
		p.Prompt,
		p.Style,
		p.Origin,
		p.LikeCount,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err, "insert projection")
}

func (q *queries) UpdateProjection(ctx context.Context, p models.PublicProjection) error {
	const query = `
		UPDATE public_projections
		SET image_key = $2,
		    thumbnail_key = $3,
		    title = $4,
		    description = $5,
		    prompt = $6,
		    style = $7,
		    like_count = $8,
		    updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query,
		p.ID,
		p.ImageKey,
		p.ThumbnailKey,
		p.Title,
		p.Description,
		p.Prompt,
		p.Style,
		p.LikeCount,
	)
	if err != nil {
		return mapError(err, "update projection")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "update projection")
	}
	return nil
}

// DeleteProjection is a no-op for unknown ids.
func (q *queries) DeleteProjection(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM public_projections WHERE id = $1`, id)
	return mapError(err, "delete projection")
}

func (q *queries) ListProjections(ctx context.Context, style string, limit, offset int) ([]models.PublicProjection, error) {
	query := `SELECT ` + projectionColumns + `
		FROM public_projections
		WHERE ($1 = '' OR style = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := q.db.Query(ctx, query, style, limit, offset)
	if err != nil {
		return nil, mapError(err, "list projections")
	}
	defer rows.Close()

	var out []models.PublicProjection
	for rows.Next() {
		p, err := scanProjection(rows)
		if err != nil {
			return nil, mapError(err, "scan projection")
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err(), "list projections")
}
