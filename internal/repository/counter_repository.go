package repository

import (
	"context"

	"artgallery/internal/models"
)

// AdjustStyleCount upserts the counter row and clamps the result at zero.
func (q *queries) AdjustStyleCount(ctx context.Context, style string, delta int) error {
	const query = `
		INSERT INTO style_counters (style, label, count)
		VALUES ($1, $3, GREATEST($2, 0))
		ON CONFLICT (style) DO UPDATE
		SET count = GREATEST(style_counters.count + $2, 0)
	`
	_, err := q.db.Exec(ctx, query, style, delta, models.StyleLabel(style))
	return mapError(err, "adjust style count")
}

func (q *queries) SetStyleCount(ctx context.Context, style string, count int) error {
	const query = `
		INSERT INTO style_counters (style, label, count)
		VALUES ($1, $3, $2)
		ON CONFLICT (style) DO UPDATE SET count = EXCLUDED.count
	`
	_, err := q.db.Exec(ctx, query, style, count, models.StyleLabel(style))
	return mapError(err, "set style count")
}

// LockCounters takes EXCLUSIVE on style_counters. It conflicts with the
// ROW EXCLUSIVE lock every counter write holds until commit, so it waits for
// in-flight publishes and blocks new ones while plain reads go on.
func (q *queries) LockCounters(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `LOCK TABLE style_counters IN EXCLUSIVE MODE`)
	return mapError(err, "lock style counters")
}

func (q *queries) StyleCounters(ctx context.Context) ([]models.StyleCounter, error) {
	rows, err := q.db.Query(ctx, `SELECT style, label, count FROM style_counters ORDER BY style`)
	if err != nil {
		return nil, mapError(err, "list style counters")
	}
	defer rows.Close()

	var out []models.StyleCounter
	for rows.Next() {
		var c models.StyleCounter
		if err := rows.Scan(&c.Style, &c.Label, &c.Count); err != nil {
			return nil, mapError(err, "scan style counter")
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err(), "list style counters")
}

func (q *queries) CountProjectionsByStyle(ctx context.Context) (map[string]int, int, error) {
	rows, err := q.db.Query(ctx, `SELECT style, COUNT(*) FROM public_projections GROUP BY style`)
	if err != nil {
		return nil, 0, mapError(err, "count projections")
	}
	defer rows.Close()

	counts := map[string]int{}
	total := 0
	for rows.Next() {
		var (
			style string
			n     int
		)
		if err := rows.Scan(&style, &n); err != nil {
			return nil, 0, mapError(err, "scan projection count")
		}
		total += n
		if style != "" {
			counts[style] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "count projections")
	}
	return counts, total, nil
}
