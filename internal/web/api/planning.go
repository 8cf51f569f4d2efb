package api

import (
	"net/http"

	"sempgateway/internal/models"
	webModels "sempgateway/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterPlanningRoutes(r *gin.RouterGroup, reg Registry) {
	planning := r.Group("/devices/:id/planningRequests")
	planning.Use(requireDevice(reg))
	{
		planning.GET("", func(c *gin.Context) {
			windows, err := reg.PlanningWindows(c.Param("id"))
			if err != nil {
				respondError(c, err)
				return
			}
			ok(c, windows)
		})

		planning.POST("", func(c *gin.Context) {
			var req webModels.AddPlanningRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respond(c, http.StatusBadRequest, "Wrong parameters", nil)
				return
			}
			tf := models.Timeframe{
				EarliestStart:  *req.Planning.EarliestStart,
				LatestEnd:      *req.Planning.LatestEnd,
				MinRunningTime: *req.Planning.MinRunningTime,
				MaxRunningTime: *req.Planning.MaxRunningTime,
			}
			if err := reg.AddPlanningWindow(c.Param("id"), tf); err != nil {
				respondError(c, err)
				return
			}
			ok(c, nil)
		})

		planning.DELETE("", func(c *gin.Context) {
			if err := reg.ClearPlanningWindows(c.Param("id")); err != nil {
				respondError(c, err)
				return
			}
			ok(c, nil)
		})
	}
}
