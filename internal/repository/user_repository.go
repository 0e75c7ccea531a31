package repository

import (
	"context"

	"artgallery/internal/models"
)

// CreateUser mirrors an account from the identity provider, refreshing the
// profile columns of an existing row.
func (q *queries) CreateUser(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (id, email, display_name, role, status, avatar_url, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = NOW()
	`
	_, err := q.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Status,
		user.AvatarURL,
	)
	return mapError(err, "create user")
}

// EnsureUser inserts user unless a row with its id exists, then returns the
// stored row. Concurrent first requests for one subject both succeed.
func (q *queries) EnsureUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, email, display_name, role, status, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := q.db.Exec(ctx, query, user.ID, user.Email, user.DisplayName, user.Role, user.Status); err != nil {
		return models.User{}, mapError(err, "ensure user")
	}
	return q.GetUser(ctx, user.ID)
}

func (q *queries) GetUser(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, COALESCE(email, ''), display_name, role, status, avatar_url, flag_count, created_at, updated_at
		FROM users WHERE id = $1
	`

	var user models.User
	err := q.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.Status,
		&user.AvatarURL,
		&user.FlagCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, mapError(err, "get user")
	}
	return user, nil
}

func (q *queries) IncrementFlagCount(ctx context.Context, userID string) (int, error) {
	const query = `
		UPDATE users SET flag_count = flag_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING flag_count
	`
	var count int
	if err := q.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, mapError(err, "increment flag count")
	}
	return count, nil
}
