package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artgallery/internal/gallery"
	"artgallery/internal/models"
	"artgallery/internal/security"
)

const testSecret = "test-secret"

type userMap map[string]models.User

func (m userMap) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, gallery.ErrNotFound
	}
	return u, nil
}

func (m userMap) EnsureUser(_ context.Context, user models.User) (models.User, error) {
	if existing, ok := m[user.ID]; ok {
		return existing, nil
	}
	m[user.ID] = user
	return user, nil
}

type brokenDirectory struct{}

func (brokenDirectory) GetUser(context.Context, string) (models.User, error) {
	return models.User{}, errors.New("connection refused")
}

func (brokenDirectory) EnsureUser(context.Context, models.User) (models.User, error) {
	return models.User{}, errors.New("connection refused")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(users UserDirectory) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()), Logger(zerolog.Nop()), Metrics())
	r.GET("/me", Auth(testSecret, users), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	r.GET("/maybe", OptionalAuth(testSecret, users), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "authenticated": ok})
	})
	r.GET("/admin", Auth(testSecret, users), RequireRoles(models.UserRoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := security.GenerateAccessToken(testSecret, userID, role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	users := userMap{
		"u1": {ID: "u1", Role: models.UserRoleUser, Status: models.UserStatusActive},
		"u2": {ID: "u2", Role: models.UserRoleUser, Status: models.UserStatusSuspended},
	}
	r := newRouter(users)

	tests := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "missing_token"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"suspended", token(t, "u2", "user"), http.StatusForbidden, "user_inactive"},
		{"ok", token(t, "u1", "user"), http.StatusOK, `"id":"u1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/me", tt.auth)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthProvisionsUnknownSubject(t *testing.T) {
	users := userMap{}
	r := newRouter(users)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, security.AccessClaims{
		UserID:           "new-1",
		Role:             "admin",
		Email:            "new@example.com",
		Name:             "Newcomer",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := do(r, "/me", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"new-1"`)

	require.Contains(t, users, "new-1")
	assert.Equal(t, models.User{
		ID:          "new-1",
		Email:       "new@example.com",
		DisplayName: "Newcomer",
		Role:        models.UserRoleAdmin,
		Status:      models.UserStatusActive,
	}, users["new-1"])

	users["new-1"] = models.User{ID: "new-1", Role: models.UserRoleUser, Status: models.UserStatusSuspended}
	assert.Equal(t, http.StatusForbidden, do(r, "/me", "Bearer "+tok).Code, "stored status wins over claims")

	assert.Equal(t, models.UserRoleUser, userFromClaims(&security.AccessClaims{UserID: "x", Role: "superuser"}).Role)
}

func TestAuthDirectoryFailure(t *testing.T) {
	w := do(newRouter(brokenDirectory{}), "/me", token(t, "u1", "user"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "user_not_found")
}

func TestOptionalAuth(t *testing.T) {
	r := newRouter(userMap{"u1": {ID: "u1", Status: models.UserStatusActive}})

	w := do(r, "/maybe", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	w = do(r, "/maybe", token(t, "u1", "user"))
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	w = do(r, "/maybe", "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(userMap{
		"u1": {ID: "u1", Role: models.UserRoleUser, Status: models.UserStatusActive},
		"a1": {ID: "a1", Role: models.UserRoleAdmin, Status: models.UserStatusActive},
	})

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, "u1", "user")).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, "a1", "admin")).Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := newRouter(userMap{})

	w := do(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 500))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(requestIDHeader), 36)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://gallery.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://gallery.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://gallery.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	open := gin.New()
	open.Use(CORS([]string{"*"}))
	open.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	open.ServeHTTP(w, req)
	assert.Equal(t, "https://evil.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, validRequestID("req-123_abc"))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID("has space"))
	assert.False(t, validRequestID("line\nbreak"))
	assert.False(t, validRequestID(strings.Repeat("a", maxRequestIDLen+1)))
}
