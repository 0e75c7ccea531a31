package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"artgallery/internal/gallery"
	"artgallery/internal/models"
	"artgallery/internal/security"
)

const (
	ctxCurrentUser  = "current_user"
	ctxAccessClaims = "access_claims"
)

// UserDirectory resolves token subjects to local user rows. EnsureUser
// inserts the user when absent and returns the stored row either way.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	EnsureUser(ctx context.Context, user models.User) (models.User, error)
}

// Auth requires a valid bearer token for an active user.
func Auth(secret string, users UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}
		if status, code := authenticate(c, secret, users, tokenStr); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present and lets
// anonymous requests through.
func OptionalAuth(secret string, users UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if status, code := authenticate(c, secret, users, tokenStr); status != 0 {
				c.AbortWithStatusJSON(status, gin.H{"error": code})
				return
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

func authenticate(c *gin.Context, secret string, users UserDirectory, tokenStr string) (int, string) {
	claims, err := security.ParseAccessToken(tokenStr, secret)
	if err != nil {
		return http.StatusUnauthorized, "invalid_token"
	}

	ctx := c.Request.Context()
	user, err := users.GetUser(ctx, claims.UserID)
	if errors.Is(err, gallery.ErrNotFound) {
		user, err = users.EnsureUser(ctx, userFromClaims(claims))
	}
	if err != nil {
		return http.StatusUnauthorized, "user_not_found"
	}
	if user.Status != models.UserStatusActive {
		return http.StatusForbidden, "user_inactive"
	}

	c.Set(ctxAccessClaims, *claims)
	c.Set(ctxCurrentUser, user)
	return 0, ""
}

// userFromClaims builds the row created the first time a subject is seen.
// Later changes to role or status are owned by the stored row.
func userFromClaims(claims *security.AccessClaims) models.User {
	role := models.UserRoleUser
	if models.UserRole(claims.Role) == models.UserRoleAdmin {
		role = models.UserRoleAdmin
	}
	return models.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        role,
		Status:      models.UserStatusActive,
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(ctxCurrentUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// RequireRoles must run after Auth.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		switch {
		case !ok:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		case !allowed[user.Role]:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.Next()
		}
	}
}
