package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type driftResponse struct {
	Style    string `json:"style"`
	Recorded int    `json:"recorded"`
	Actual   int    `json:"actual"`
}

// ReconcileCounters recounts projections and repairs drifted style counters.
func (h HandlerSet) ReconcileCounters(c *gin.Context) {
	drifts, err := h.gallery.ReconcileCounters(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]driftResponse, 0, len(drifts))
	for _, d := range drifts {
		items = append(items, driftResponse{Style: d.Style, Recorded: d.Recorded, Actual: d.Actual})
	}
	h.log.Info().Int("drifts", len(items)).Str("user_id", currentUserID(c)).Msg("style counters reconciled")

	c.JSON(http.StatusOK, gin.H{"corrected": items})
}
