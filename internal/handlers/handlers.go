package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"artgallery/internal/config"
	"artgallery/internal/gallery"
	"artgallery/internal/middleware"
	"artgallery/internal/models"
)

// URLBuilder turns object keys into links clients can fetch.
type URLBuilder interface {
	OriginalURL(key string) string
	ThumbnailURL(key string) string
}

// HealthCheck is one dependency probe reported by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	gallery *gallery.Coordinator
	users   middleware.UserDirectory
	urls    URLBuilder
	checks  []HealthCheck
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	coordinator *gallery.Coordinator,
	users middleware.UserDirectory,
	urls URLBuilder,
	checks ...HealthCheck,
) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		gallery: coordinator,
		users:   users,
		urls:    urls,
		checks:  checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	secret := h.cfg.Security.JWTAccessSecret
	v1 := router.Group("/v1")

	public := v1.Group("/gallery")
	public.Use(middleware.OptionalAuth(secret, h.users))
	{
		public.GET("", h.PublicGallery)
		public.GET("/styles", h.StyleCounters)
		public.GET("/:id/comments", h.ListComments)
	}

	assets := v1.Group("/assets")
	assets.Use(middleware.Auth(secret, h.users))
	{
		assets.GET("", h.ListAssets)
		assets.POST("", h.CreateAsset)
		assets.PATCH("/:id", h.UpdateAsset)
		assets.DELETE("/:id", h.DeleteAsset)
		assets.PUT("/:id/visibility", h.SetVisibility)
		assets.POST("/:id/visibility/toggle", h.ToggleVisibility)
		assets.PUT("/:id/like", h.SetLike)
		assets.POST("/:id/comments", h.AddComment)
	}

	comments := v1.Group("/comments")
	comments.Use(middleware.Auth(secret, h.users))
	comments.DELETE("/:id", h.DeleteComment)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(secret, h.users),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.POST("/counters/reconcile", h.ReconcileCounters)
}

// currentUserID is only called behind Auth, which guarantees a user.
func currentUserID(c *gin.Context) string {
	user, _ := middleware.CurrentUser(c)
	return user.ID
}
