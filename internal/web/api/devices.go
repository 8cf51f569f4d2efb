package api

import (
	"net/http"

	"sempgateway/internal/models"
	webModels "sempgateway/internal/web/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Registry is the registry surface used by the management API.
type Registry interface {
	Get(id string) (*models.Device, error)
	GetAll() []models.Device
	Create(device models.Device) error
	Update(id string, u models.DeviceUpdate) error
	Delete(id string)
	AddPlanningWindow(id string, tf models.Timeframe) error
	ClearPlanningWindows(id string) error
	PlanningWindows(id string) ([]models.Timeframe, error)
	SetLastPower(id string, p models.PowerReading) error
	SetHook(id, hookURL string) error
	ClearHook(id string) error
	Recommendation(id string) (*models.Recommendation, error)
}

const deviceKey = "device"

// requireDevice resolves :id and answers 404 for unknown devices.
func requireDevice(reg Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := reg.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(deviceKey, d)
		c.Next()
	}
}

func RegisterDeviceRoutes(r *gin.RouterGroup, reg Registry, logger zerolog.Logger) {
	devices := r.Group("/devices")
	{
		devices.GET("", func(c *gin.Context) {
			all := reg.GetAll()
			views := make([]webModels.DeviceView, 0, len(all))
			for i := range all {
				views = append(views, webModels.NewDeviceView(&all[i]))
			}
			ok(c, views)
		})

		devices.POST("", func(c *gin.Context) {
			var req webModels.CreateDeviceRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respond(c, http.StatusBadRequest, "Device couldnt be created. "+err.Error(), nil)
				return
			}
			if err := reg.Create(req.Device.ToDevice()); err != nil {
				logger.Warn().Err(err).Str("device_id", req.Device.DeviceID).Msg("device couldn't be created")
				respondError(c, err)
				return
			}
			logger.Info().Str("device_id", req.Device.DeviceID).Msg("added device")
			ok(c, nil)
		})

		devices.GET("/:id", requireDevice(reg), func(c *gin.Context) {
			d := c.MustGet(deviceKey).(*models.Device)
			ok(c, webModels.NewDeviceView(d))
		})

		devices.PUT("/:id", func(c *gin.Context) {
			var req webModels.UpdateDeviceRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respond(c, http.StatusBadRequest, "Device couldnt be updated. "+err.Error(), nil)
				return
			}
			if err := reg.Update(c.Param("id"), *req.Device); err != nil {
				respondError(c, err)
				return
			}
			ok(c, nil)
		})

		// Deleting an unknown device reports success: the desired end state holds.
		devices.DELETE("/:id", func(c *gin.Context) {
			reg.Delete(c.Param("id"))
			ok(c, nil)
		})
	}
}
