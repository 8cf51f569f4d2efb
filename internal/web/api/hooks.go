package api

import (
	"net/http"
	"strings"

	webModels "sempgateway/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterHookRoutes(r *gin.RouterGroup, reg Registry) {
	device := r.Group("/devices/:id")
	device.Use(requireDevice(reg))
	{
		device.POST("/hook", func(c *gin.Context) {
			var req webModels.HookRequest
			if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.HookURL) == "" {
				respond(c, http.StatusBadRequest, "HookURL not specified", nil)
				return
			}
			if err := reg.SetHook(c.Param("id"), req.HookURL); err != nil {
				respondError(c, err)
				return
			}
			ok(c, nil)
		})

		device.DELETE("/hook", func(c *gin.Context) {
			if err := reg.ClearHook(c.Param("id")); err != nil {
				respondError(c, err)
				return
			}
			ok(c, nil)
		})

		device.GET("/recommendation", func(c *gin.Context) {
			rec, err := reg.Recommendation(c.Param("id"))
			if err != nil {
				respondError(c, err)
				return
			}
			ok(c, rec)
		})
	}
}
