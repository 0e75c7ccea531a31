// Package ledger keeps the per-style public counters in step with the set of
// public projections. Every method runs against the caller's transaction.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"artgallery/internal/models"
)

var driftTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gallery_style_counter_drift_total",
		Help: "Style counters corrected by reconciliation.",
	},
	[]string{"style"},
)

// Store is the slice of a storage transaction the ledger mutates.
type Store interface {
	// AdjustStyleCount adds delta to the counter, creating the row when the
	// style is new. The stored count never drops below zero.
	AdjustStyleCount(ctx context.Context, style string, delta int) error
	StyleCounters(ctx context.Context) ([]models.StyleCounter, error)
	// CountProjectionsByStyle returns counts per non-empty style and the
	// total number of projections.
	CountProjectionsByStyle(ctx context.Context) (map[string]int, int, error)
	SetStyleCount(ctx context.Context, style string, count int) error
	// LockCounters blocks counter writers until the transaction ends and
	// waits for writers already in flight to finish.
	LockCounters(ctx context.Context) error
}

// Drift is a counter that disagreed with the recount.
type Drift struct {
	Style    string
	Recorded int
	Actual   int
}

type Ledger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Ledger {
	return &Ledger{log: log}
}

func (l *Ledger) ProjectionCreated(ctx context.Context, s Store, style string) error {
	return l.apply(ctx, s, style, 1)
}

func (l *Ledger) ProjectionDestroyed(ctx context.Context, s Store, style string) error {
	return l.apply(ctx, s, style, -1)
}

// StyleChanged moves one projection between styles. The all-styles total is
// untouched.
func (l *Ledger) StyleChanged(ctx context.Context, s Store, oldStyle, newStyle string) error {
	if oldStyle == newStyle {
		return nil
	}
	if oldStyle != "" {
		if err := s.AdjustStyleCount(ctx, oldStyle, -1); err != nil {
			return fmt.Errorf("decrement style %q: %w", oldStyle, err)
		}
	}
	if newStyle != "" {
		if err := s.AdjustStyleCount(ctx, newStyle, 1); err != nil {
			return fmt.Errorf("increment style %q: %w", newStyle, err)
		}
	}
	return nil
}

func (l *Ledger) apply(ctx context.Context, s Store, style string, delta int) error {
	if style != "" && style != models.AllStyles {
		if err := s.AdjustStyleCount(ctx, style, delta); err != nil {
			return fmt.Errorf("adjust style %q: %w", style, err)
		}
	}
	if err := s.AdjustStyleCount(ctx, models.AllStyles, delta); err != nil {
		return fmt.Errorf("adjust %s: %w", models.AllStyles, err)
	}
	return nil
}

// Reconcile recounts projections and overwrites every counter that drifted.
// Styles with a counter row but no projections are reset to zero, missing
// rows are created. The counters are locked before the recount so no
// concurrent adjustment can land between the two.
func (l *Ledger) Reconcile(ctx context.Context, s Store) ([]Drift, error) {
	if err := s.LockCounters(ctx); err != nil {
		return nil, fmt.Errorf("lock style counters: %w", err)
	}
	actual, total, err := s.CountProjectionsByStyle(ctx)
	if err != nil {
		return nil, fmt.Errorf("count projections: %w", err)
	}
	recorded, err := s.StyleCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load style counters: %w", err)
	}

	want := make(map[string]int, len(actual)+1)
	for style, n := range actual {
		want[style] = n
	}
	want[models.AllStyles] = total

	have := make(map[string]int, len(recorded))
	for _, c := range recorded {
		have[c.Style] = c.Count
		if _, ok := want[c.Style]; !ok {
			want[c.Style] = 0
		}
	}

	var drifts []Drift
	for style, n := range want {
		if have[style] == n {
			continue
		}
		drifts = append(drifts, Drift{Style: style, Recorded: have[style], Actual: n})
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Style < drifts[j].Style })

	for _, d := range drifts {
		if err := s.SetStyleCount(ctx, d.Style, d.Actual); err != nil {
			return nil, fmt.Errorf("set style %q: %w", d.Style, err)
		}
		driftTotal.WithLabelValues(d.Style).Inc()
		l.log.Warn().
			Str("style", d.Style).
			Int("recorded", d.Recorded).
			Int("actual", d.Actual).
			Msg("style counter drift corrected")
	}
	return drifts, nil
}
