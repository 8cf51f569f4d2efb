package api

import (
	"context"
	"net/http"
	"strconv"

	"sempgateway/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HistoryStore reads the recommendation history.
type HistoryStore interface {
	RecentRecommendations(ctx context.Context, deviceID string, limit int) ([]models.Recommendation, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

func RegisterHistoryRoutes(r *gin.RouterGroup, reg Registry, history HistoryStore, logger zerolog.Logger) {
	device := r.Group("/devices/:id")
	device.Use(requireDevice(reg))
	device.GET("/recommendations", func(c *gin.Context) {
		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				respond(c, http.StatusBadRequest, "Wrong parameters", nil)
				return
			}
			limit = n
		}

		recs, err := history.RecentRecommendations(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			logger.Error().Err(err).Str("device_id", c.Param("id")).Msg("failed to read recommendation history")
			respondError(c, err)
			return
		}
		if recs == nil {
			recs = []models.Recommendation{}
		}
		ok(c, recs)
	})
}
