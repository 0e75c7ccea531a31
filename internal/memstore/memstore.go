// Package memstore is an in-memory gallery store. Transactions run one at a
// time under a single lock and roll back to a snapshot on error.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"artgallery/internal/gallery"
	"artgallery/internal/models"
)

type likeKey struct {
	userID  string
	assetID string
}

type state struct {
	users       map[string]models.User
	assets      map[string]models.Asset
	projections map[string]models.PublicProjection
	counters    map[string]models.StyleCounter
	likes       map[likeKey]models.Like
	comments    map[string]models.Comment
}

func (s *state) clone() *state {
	out := &state{
		users:       make(map[string]models.User, len(s.users)),
		assets:      make(map[string]models.Asset, len(s.assets)),
		projections: make(map[string]models.PublicProjection, len(s.projections)),
		counters:    make(map[string]models.StyleCounter, len(s.counters)),
		likes:       make(map[likeKey]models.Like, len(s.likes)),
		comments:    make(map[string]models.Comment, len(s.comments)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.assets {
		out.assets[k] = v
	}
	for k, v := range s.projections {
		out.projections[k] = v
	}
	for k, v := range s.counters {
		out.counters[k] = v
	}
	for k, v := range s.likes {
		out.likes[k] = v
	}
	for k, v := range s.comments {
		out.comments[k] = v
	}
	return out
}

type Store struct {
	mu       sync.RWMutex
	data     *state
	failures map[string]error
}

var _ gallery.Store = (*Store)(nil)

// New returns a store seeded with the default style catalog.
func New() *Store {
	s := &Store{
		data: &state{
			users:       map[string]models.User{},
			assets:      map[string]models.Asset{},
			projections: map[string]models.PublicProjection{},
			counters:    map[string]models.StyleCounter{},
			likes:       map[likeKey]models.Like{},
			comments:    map[string]models.Comment{},
		},
		failures: map[string]error{},
	}
	s.data.counters[models.AllStyles] = models.StyleCounter{Style: models.AllStyles, Label: models.StyleLabel(models.AllStyles)}
	for _, style := range models.DefaultStyles {
		s.data.counters[style.Name] = models.StyleCounter{Style: style.Name, Label: style.Label}
	}
	return s
}

// FailOn makes the named Tx method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[user.ID] = user
}

func (s *Store) PutAsset(asset models.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.assets[asset.ID] = asset
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx gallery.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Tx{data: s.data, failures: s.failures}
	if err := fn(ctx, tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.users[id]
	if !ok {
		return models.User{}, gallery.ErrNotFound
	}
	return user, nil
}

func (s *Store) EnsureUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data.users[user.ID]; ok {
		return existing, nil
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.data.users[user.ID] = user
	return user, nil
}

func (s *Store) IncrementFlagCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.data.users[userID]
	if !ok {
		return 0, gallery.ErrNotFound
	}
	user.FlagCount++
	s.data.users[userID] = user
	return user.FlagCount, nil
}

func (s *Store) GetAsset(_ context.Context, id string) (models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.data.assets[id]
	if !ok {
		return models.Asset{}, gallery.ErrNotFound
	}
	return asset, nil
}

func (s *Store) ListAssetsByUser(_ context.Context, userID string, limit, offset int) ([]models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Asset
	for _, a := range s.data.assets {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), nil
}

func (s *Store) ListAssetsMissingThumbnails(_ context.Context, limit int) ([]models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Asset
	for _, a := range s.data.assets {
		if a.HasImage() && a.ThumbnailKey == "" {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, 0), nil
}

func (s *Store) ListProjections(_ context.Context, style string, limit, offset int) ([]models.PublicProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PublicProjection
	for _, p := range s.data.projections {
		if style == "" || p.Style == style {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), nil
}

func (s *Store) StyleCounters(_ context.Context) ([]models.StyleCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCounters(s.data), nil
}

func (s *Store) ListComments(_ context.Context, assetID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.data.comments {
		if c.AssetID == assetID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Snapshot accessors for assertions.

func (s *Store) Projections() []models.PublicProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PublicProjection, 0, len(s.data.projections))
	for _, p := range s.data.projections {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Count(style string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.counters[style].Count
}

func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.data.counters))
	for style, c := range s.data.counters {
		out[style] = c.Count
	}
	return out
}

func (s *Store) LikeCount(assetID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.data.likes {
		if k.assetID == assetID {
			n++
		}
	}
	return n
}

func (s *Store) CommentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.comments)
}

func sortedCounters(data *state) []models.StyleCounter {
	out := make([]models.StyleCounter, 0, len(data.counters))
	for _, c := range data.counters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Style < out[j].Style })
	return out
}

func newerFirst(a, b int64, idA, idB string) bool {
	if a == b {
		return idA > idB
	}
	return a > b
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, gallery.ErrNotFound)
}

func (s *Store) Assets() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Asset, 0, len(s.data.assets))
	for _, a := range s.data.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
