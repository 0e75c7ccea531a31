package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"artgallery/internal/gallery"
)

// writeError maps coordinator errors onto status codes. Anything unknown is
// logged and reported as internal.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	var validationErr *gallery.ValidationError
	var rejectedErr *gallery.RejectedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.As(err, &rejectedErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "inappropriate_content",
			"reason": rejectedErr.Error(),
		})
	case errors.Is(err, gallery.ErrClassifierUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "classifier_unavailable"})
	case errors.Is(err, gallery.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, gallery.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, gallery.ErrNotPublic):
		c.JSON(http.StatusConflict, gin.H{"error": "not_public"})
	case errors.Is(err, gallery.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

func badRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": code})
}
