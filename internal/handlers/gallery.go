package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artgallery/internal/gallery"
)

func pageFromQuery(c *gin.Context) gallery.Page {
	var page gallery.Page
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(c.Query("perPage")); err == nil {
		page.PerPage = v
	}
	return page
}

func (h HandlerSet) PublicGallery(c *gin.Context) {
	projections, err := h.gallery.PublicGallery(c.Request.Context(), c.Query("style"), pageFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]projectionResponse, 0, len(projections))
	for _, p := range projections {
		items = append(items, h.toProjection(p))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) StyleCounters(c *gin.Context) {
	counters, err := h.gallery.StyleCounters(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]styleCounterResponse, 0, len(counters))
	for _, sc := range counters {
		items = append(items, styleCounterResponse{Style: sc.Style, Label: sc.Label, Count: sc.Count})
	}
	c.JSON(http.StatusOK, gin.H{"styles": items})
}
