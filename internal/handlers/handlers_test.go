package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artgallery/internal/config"
	"artgallery/internal/contentsafety"
	"artgallery/internal/events"
	"artgallery/internal/gallery"
	"artgallery/internal/handlers"
	"artgallery/internal/memstore"
	"artgallery/internal/models"
	"artgallery/internal/moderation"
	"artgallery/internal/security"
)

const jwtSecret = "handler-secret"

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)

type safeClassifier struct {
	err error
}

func (s safeClassifier) Classify(context.Context, contentsafety.MediaKind, []byte, []string) (contentsafety.Result, error) {
	if s.err != nil {
		return contentsafety.Result{}, s.err
	}
	result := contentsafety.Result{Severities: map[contentsafety.Category]contentsafety.Severity{}}
	for _, c := range contentsafety.Categories {
		result.Severities[c] = 0
	}
	return result, nil
}

type memObjects struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memObjects) PutOriginal(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memObjects) ReadOriginal(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return data, nil
}

func (m *memObjects) RemoveOriginal(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memObjects) RemoveThumbnail(context.Context, string) error { return nil }

type nopQueue struct{}

func (nopQueue) Publish(context.Context, events.Event) error { return nil }
func (nopQueue) Enqueue(context.Context, events.Task) error  { return nil }

type staticURLs struct{}

func (staticURLs) OriginalURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.test/originals/" + key
}

func (staticURLs) ThumbnailURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.test/thumbs/" + key
}

type testAPI struct {
	router *gin.Engine
	store  *memstore.Store
	tokens map[string]string
}

func newAPI(t *testing.T, classifier contentsafety.Classifier, checks ...handlers.HealthCheck) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	users := []models.User{
		{ID: "alice", Role: models.UserRoleUser, Status: models.UserStatusActive},
		{ID: "bob", Role: models.UserRoleUser, Status: models.UserStatusActive},
		{ID: "root", Role: models.UserRoleAdmin, Status: models.UserStatusActive},
	}
	tokens := map[string]string{}
	for _, u := range users {
		store.PutUser(u)
		tok, err := security.GenerateAccessToken(jwtSecret, u.ID, string(u.Role), time.Hour)
		require.NoError(t, err)
		tokens[u.ID] = tok
	}

	moderator, err := moderation.NewModerator(
		moderation.NewKeywordFilter(),
		classifier,
		store,
		config.ContentSafetyConfig{Thresholds: config.ThresholdConfig{Hate: 4, SelfHarm: 4, Sexual: 2, Violence: 4}},
		zerolog.Nop(),
	)
	require.NoError(t, err)

	coord := gallery.NewCoordinator(gallery.Deps{
		Store:     store,
		Moderator: moderator,
		Objects:   &memObjects{data: map[string][]byte{}},
		Events:    nopQueue{},
		Tasks:     nopQueue{},
		Log:       zerolog.Nop(),
	})

	cfg := &config.AppConfig{Environment: "test"}
	cfg.HTTP.MaxUploadMB = 1
	cfg.Security.JWTAccessSecret = jwtSecret

	router := gin.New()
	handlers.NewHandlerSet(zerolog.Nop(), cfg, coord, store, staticURLs{}, checks...).Register(router.Group("/api"))
	return &testAPI{router: router, store: store, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[user])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(t *testing.T, user string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "art.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.tokens[user])
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type createdBody struct {
	Asset struct {
		ID       string `json:"id"`
		Public   bool   `json:"public"`
		ImageURL string `json:"imageUrl"`
	} `json:"asset"`
	Public bool   `json:"public"`
	Reason string `json:"reason"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (a *testAPI) create(t *testing.T, user, prompt string, public bool) createdBody {
	t.Helper()
	fields := map[string]string{"prompt": prompt, "style": "anime"}
	if public {
		fields["public"] = "true"
	}
	w := a.upload(t, user, fields, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdBody](t, w)
}

func TestHealth(t *testing.T) {
	api := newAPI(t, safeClassifier{},
		handlers.HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		handlers.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("down") }},
	)

	w := api.do(t, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "error"}, body["dependencies"])
}

func TestCreateAssetPublishesImage(t *testing.T) {
	api := newAPI(t, safeClassifier{})

	w := api.upload(t, "alice", map[string]string{
		"prompt": "a lighthouse at dusk",
		"style":  "Watercolor",
		"public": "true",
	}, pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[createdBody](t, w)
	assert.True(t, body.Public)
	assert.True(t, body.Asset.Public)
	assert.True(t, strings.HasPrefix(body.Asset.ImageURL, "https://cdn.test/originals/"))
	assert.Equal(t, 1, api.store.Count("watercolor"))
	assert.Equal(t, 1, api.store.Count(models.AllStyles))

	w = api.do(t, http.MethodGet, "/api/v1/gallery?style=watercolor", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, w).Items
	require.Len(t, items, 1)
	assert.Equal(t, body.Asset.ID, items[0]["assetId"])
}

func TestFirstRequestProvisionsUser(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	_, err := api.store.GetUser(context.Background(), "carol")
	require.ErrorIs(t, err, gallery.ErrNotFound)

	tok, err := security.GenerateAccessToken(jwtSecret, "carol", "user", time.Hour)
	require.NoError(t, err)
	api.tokens["carol"] = tok

	body := api.create(t, "carol", "a fox in the snow", true)
	assert.True(t, body.Public)

	user, err := api.store.GetUser(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.Equal(t, models.UserRoleUser, user.Role)
}

func TestCreateAssetRejectedStaysPrivate(t *testing.T) {
	api := newAPI(t, safeClassifier{})

	body := api.create(t, "alice", "a nude child on a playground", true)
	assert.False(t, body.Public)
	assert.NotEmpty(t, body.Reason)
	assert.Equal(t, 0, api.store.Count(models.AllStyles))
}

func TestCreateAssetClassifierDown(t *testing.T) {
	api := newAPI(t, safeClassifier{err: errors.New("timeout")})

	w := api.upload(t, "alice", map[string]string{"prompt": "a quiet harbor", "public": "true"}, pngBytes)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[createdBody](t, w)
	assert.False(t, body.Public)
	assert.Equal(t, "content classifier unavailable", body.Reason)
}

func TestCreateAssetErrors(t *testing.T) {
	api := newAPI(t, safeClassifier{})

	w := api.upload(t, "alice", map[string]string{"prompt": "a cat"}, []byte("definitely not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = api.upload(t, "alice", map[string]string{"style": "anime"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "prompt", body["field"])

	w = api.upload(t, "alice", map[string]string{"prompt": "a cat", "public": "maybe"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.upload(t, "alice", map[string]string{"prompt": "a cat"}, bytes.Repeat([]byte{0xff}, 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVisibilityEndpoints(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	created := api.create(t, "alice", "a foggy forest", false)
	path := "/api/v1/assets/" + created.Asset.ID + "/visibility"

	w := api.do(t, http.MethodPut, path, "bob", gin.H{"public": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPut, path, "alice", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, path, "alice", gin.H{"public": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["public"])
	assert.Equal(t, 1, api.store.Count("anime"))

	w = api.do(t, http.MethodPost, path+"/toggle", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["public"])
	assert.Equal(t, 0, api.store.Count("anime"))

	w = api.do(t, http.MethodPut, "/api/v1/assets/missing/visibility", "alice", gin.H{"public": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVisibilityRejectedContent(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	created := api.create(t, "alice", "a nude child on a playground", false)

	w := api.do(t, http.MethodPut, "/api/v1/assets/"+created.Asset.ID+"/visibility", "alice", gin.H{"public": true})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "inappropriate_content", decode[map[string]any](t, w)["error"])
}

func TestLikeEndpoint(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	private := api.create(t, "alice", "a red bicycle", false)
	public := api.create(t, "alice", "a blue bicycle", true)

	w := api.do(t, http.MethodPut, "/api/v1/assets/"+private.Asset.ID+"/like", "bob", gin.H{"liked": true})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_public", decode[map[string]any](t, w)["error"])

	for i := 0; i < 2; i++ {
		w = api.do(t, http.MethodPut, "/api/v1/assets/"+public.Asset.ID+"/like", "bob", gin.H{"liked": true})
		require.Equal(t, http.StatusOK, w.Code)
	}
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["likeCount"])

	w = api.do(t, http.MethodPut, "/api/v1/assets/"+public.Asset.ID+"/like", "bob", gin.H{"liked": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["likeCount"])
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	created := api.create(t, "alice", "a sleepy fox", true)
	path := "/api/v1/assets/" + created.Asset.ID

	w := api.do(t, http.MethodPatch, path, "alice", gin.H{"style": "sketch", "title": "Fox"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, api.store.Count("anime"))
	assert.Equal(t, 1, api.store.Count("sketch"))

	w = api.do(t, http.MethodPatch, path, "alice", gin.H{"style": models.AllStyles})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, path, "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, api.store.Count("sketch"))
	assert.Equal(t, 0, api.store.Count(models.AllStyles))

	w = api.do(t, http.MethodGet, "/api/v1/assets", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[struct {
		Items []any `json:"items"`
	}](t, w).Items)
}

func TestCommentEndpoints(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	public := api.create(t, "alice", "a paper boat", true)
	private := api.create(t, "alice", "a glass boat", false)

	w := api.do(t, http.MethodPost, "/api/v1/assets/"+public.Asset.ID+"/comments", "bob", gin.H{"content": "  lovely  "})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[struct {
		Comment struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		} `json:"comment"`
	}](t, w).Comment
	assert.Equal(t, "lovely", comment.Content)

	w = api.do(t, http.MethodPost, "/api/v1/assets/"+private.Asset.ID+"/comments", "bob", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/gallery/"+public.Asset.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Items []any `json:"items"`
	}](t, w).Items, 1)

	w = api.do(t, http.MethodGet, "/api/v1/gallery/"+private.Asset.ID+"/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/gallery/"+private.Asset.ID+"/comments", "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/comments/"+comment.ID, "root", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(t, http.MethodDelete, "/api/v1/comments/"+comment.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStylesAndReconcile(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	api.create(t, "alice", "a neon alley", true)

	w := api.do(t, http.MethodGet, "/api/v1/gallery/styles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	styles := decode[struct {
		Styles []struct {
			Style string `json:"style"`
			Count int    `json:"count"`
		} `json:"styles"`
	}](t, w).Styles
	counts := map[string]int{}
	for _, s := range styles {
		counts[s.Style] = s.Count
	}
	assert.Equal(t, 1, counts["anime"])
	assert.Equal(t, 1, counts[models.AllStyles])

	w = api.do(t, http.MethodPost, "/api/v1/admin/counters/reconcile", "alice", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/admin/counters/reconcile", "root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[struct {
		Corrected []any `json:"corrected"`
	}](t, w).Corrected)
}

func TestGalleryHugePageIsEmpty(t *testing.T) {
	api := newAPI(t, safeClassifier{})
	api.create(t, "alice", "a lantern festival", true)

	w := api.do(t, http.MethodGet, "/api/v1/gallery?page=9223372036854775807&perPage=9223372036854775807", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, w).Items
	assert.Empty(t, items)
}
