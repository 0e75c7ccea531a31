package repository

import (
	"context"

	"artgallery/internal/models"
)

// InsertLike relies on the (user_id, asset_id) primary key; a concurrent
// duplicate inserts nothing and reports false.
func (q *queries) InsertLike(ctx context.Context, like models.Like) (bool, error) {
	const query = `
		INSERT INTO likes (user_id, asset_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, asset_id) DO NOTHING
	`
	tag, err := q.db.Exec(ctx, query, like.UserID, like.AssetID, like.CreatedAt)
	if err != nil {
		return false, mapError(err, "insert like")
	}
	return tag.RowsAffected() == 1, nil
}

func (q *queries) DeleteLike(ctx context.Context, userID, assetID string) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND asset_id = $2`, userID, assetID)
	if err != nil {
		return false, mapError(err, "delete like")
	}
	return tag.RowsAffected() == 1, nil
}

func (q *queries) GetComment(ctx context.Context, id string) (models.Comment, error) {
	const query = `
		SELECT id, asset_id, user_id, content, created_at, updated_at
		FROM comments WHERE id = $1
	`
	var c models.Comment
	err := q.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.AssetID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Comment{}, mapError(err, "get comment")
	}
	return c, nil
}

func (q *queries) InsertComment(ctx context.Context, c models.Comment) error {
	const query = `
		INSERT INTO comments (id, asset_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.db.Exec(ctx, query, c.ID, c.AssetID, c.UserID, c.Content, c.CreatedAt, c.UpdatedAt)
	return mapError(err, "insert comment")
}

func (q *queries) DeleteComment(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return mapError(err, "delete comment")
}

func (q *queries) ListComments(ctx context.Context, assetID string) ([]models.Comment, error) {
	const query = `
		SELECT id, asset_id, user_id, content, created_at, updated_at
		FROM comments WHERE asset_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, mapError(err, "list comments")
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.AssetID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapError(err, "scan comment")
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err(), "list comments")
}
