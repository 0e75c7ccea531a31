package gallery_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artgallery/internal/config"
	"artgallery/internal/contentsafety"
	"artgallery/internal/events"
	"artgallery/internal/gallery"
	"artgallery/internal/memstore"
	"artgallery/internal/models"
	"artgallery/internal/moderation"
)

const (
	owner = "user-owner"
	fan   = "user-fan"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type stubClassifier struct {
	calls    atomic.Int32
	mu       sync.Mutex
	severity contentsafety.Severity
	err      error
}

func (s *stubClassifier) Classify(context.Context, contentsafety.MediaKind, []byte, []string) (contentsafety.Result, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return contentsafety.Result{}, s.err
	}
	result := contentsafety.Result{Severities: map[contentsafety.Category]contentsafety.Severity{}}
	for _, c := range contentsafety.Categories {
		result.Severities[c] = s.severity
	}
	return result, nil
}

func (s *stubClassifier) set(severity contentsafety.Severity, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.severity = severity
	s.err = err
}

type fakeObjects struct {
	mu        sync.Mutex
	originals map[string][]byte
	thumbs    map[string][]byte
	removeErr error
	removed   []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{originals: map[string][]byte{}, thumbs: map[string][]byte{}}
}

func (f *fakeObjects) PutOriginal(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.originals[key] = data
	return nil
}

func (f *fakeObjects) ReadOriginal(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.originals[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (f *fakeObjects) RemoveOriginal(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.originals, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjects) RemoveThumbnail(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.thumbs, key)
	f.removed = append(f.removed, key)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	tasks  []events.Task
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Enqueue(_ context.Context, task events.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *recorder) eventTypes() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	store      *memstore.Store
	coord      *gallery.Coordinator
	classifier *stubClassifier
	objects    *fakeObjects
	recorder   *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	store.PutUser(models.User{ID: owner, Email: "owner@example.com", Role: models.UserRoleUser})
	store.PutUser(models.User{ID: fan, Email: "fan@example.com", Role: models.UserRoleUser})

	classifier := &stubClassifier{}
	moderator, err := moderation.NewModerator(
		moderation.NewKeywordFilter(),
		classifier,
		store,
		config.ContentSafetyConfig{Thresholds: config.ThresholdConfig{Hate: 4, SelfHarm: 4, Sexual: 2, Violence: 4}},
		zerolog.Nop(),
	)
	require.NoError(t, err)

	objects := newFakeObjects()
	rec := &recorder{}
	coord := gallery.NewCoordinator(gallery.Deps{
		Store:     store,
		Moderator: moderator,
		Objects:   objects,
		Events:    rec,
		Tasks:     rec,
		Log:       zerolog.Nop(),
	})
	return &env{store: store, coord: coord, classifier: classifier, objects: objects, recorder: rec}
}

// addAsset stores a private asset with an image owned by owner.
func (e *env) addAsset(id, prompt, style string) models.Asset {
	now := time.Now().UTC()
	asset := models.Asset{
		ID:        id,
		UserID:    owner,
		ImageKey:  "2024/01/01/" + id + ".png",
		Prompt:    prompt,
		Style:     style,
		Origin:    models.OriginGenerated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.store.PutAsset(asset)
	e.objects.originals[asset.ImageKey] = pngBytes
	return asset
}

func (e *env) publish(t *testing.T, id string) {
	t.Helper()
	vis, err := e.coord.RequestVisibilityChange(context.Background(), id, owner, true)
	require.NoError(t, err)
	require.True(t, vis.IsPublic)
}

func (e *env) asset(t *testing.T, id string) models.Asset {
	t.Helper()
	asset, err := e.store.GetAsset(context.Background(), id)
	require.NoError(t, err)
	return asset
}

func (e *env) flagCount(t *testing.T, userID string) int {
	t.Helper()
	user, err := e.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return user.FlagCount
}

// assertConsistent checks that public flags match projections and that every
// style counter matches a recount.
func assertConsistent(t *testing.T, store *memstore.Store) {
	t.Helper()
	projected := map[string]models.PublicProjection{}
	perStyle := map[string]int{}
	for _, p := range store.Projections() {
		require.NotNil(t, p.AssetID)
		_, dup := projected[*p.AssetID]
		assert.False(t, dup, "duplicate projection for %s", *p.AssetID)
		projected[*p.AssetID] = p
		if p.Style != "" {
			perStyle[p.Style]++
		}
	}
	for _, a := range store.Assets() {
		p, ok := projected[a.ID]
		assert.Equal(t, a.IsPublic, ok, "asset %s public flag disagrees with projection", a.ID)
		if ok {
			assert.Equal(t, a.LikeCount, p.LikeCount, "like count of %s", a.ID)
			assert.Equal(t, store.LikeCount(a.ID), p.LikeCount, "like rows of %s", a.ID)
		}
	}
	for style, n := range store.Counts() {
		if style == models.AllStyles {
			assert.Equal(t, len(projected), n, "all-styles counter")
			continue
		}
		assert.Equal(t, perStyle[style], n, "counter for %s", style)
	}
}
