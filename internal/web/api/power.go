package api

import (
	"net/http"

	"sempgateway/internal/models"
	webModels "sempgateway/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterPowerRoutes(r *gin.RouterGroup, reg Registry) {
	r.PUT("/devices/:id/lastPower", requireDevice(reg), func(c *gin.Context) {
		var req webModels.LastPowerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, "Error "+err.Error(), nil)
			return
		}
		p := models.PowerReading{
			Watts:    *req.Power.Watts,
			MinPower: *req.Power.MinPower,
			MaxPower: *req.Power.MaxPower,
		}
		if err := reg.SetLastPower(c.Param("id"), p); err != nil {
			respondError(c, err)
			return
		}
		ok(c, nil)
	})
}
