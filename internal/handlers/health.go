package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Environment  string            `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:       "ok",
		Dependencies: make(map[string]string, len(h.checks)),
		Environment:  h.cfg.Environment,
	}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Dependencies[check.Name] = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Str("dependency", check.Name).Msg("health check failed")
			continue
		}
		resp.Dependencies[check.Name] = "ok"
	}

	c.JSON(http.StatusOK, resp)
}
