package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"artgallery/internal/middleware"
)

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h HandlerSet) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body")
		return
	}

	comment, err := h.gallery.AddComment(c.Request.Context(), c.Param("id"), currentUserID(c), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": toComment(comment)})
}

// ListComments is public; owners also see comments left while the asset
// was public and it has since gone private.
func (h HandlerSet) ListComments(c *gin.Context) {
	var viewerID string
	if user, ok := middleware.CurrentUser(c); ok {
		viewerID = user.ID
	}

	comments, err := h.gallery.ListComments(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]commentResponse, 0, len(comments))
	for _, cm := range comments {
		items = append(items, toComment(cm))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) DeleteComment(c *gin.Context) {
	if err := h.gallery.DeleteComment(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
