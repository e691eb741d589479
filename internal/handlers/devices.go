package handlers

import (
	"errors"
	"net/http"

	"soil_monitor/internal/protocol"

	"github.com/gin-gonic/gin"
)

const errGetStatus = "failed to load device status"

// @Summary      Device status
// @Tags         devices
// @Produce      json
// @Param        eui  path  string  true  "Device EUI"
// @Success      200  {object}  models.DeviceStatus
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{eui}/status [get]
// @Security     BearerAuth
func (h *Handler) deviceStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context(), c.Param("eui"))
	if err != nil {
		var unrecognized *protocol.UnrecognizedDeviceError
		if errors.As(err, &unrecognized) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not registered"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "device_status_failed", err, "dev_eui", c.Param("eui"))
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Status of every registered device
// @Tags         devices
// @Produce      json
// @Success      200  {array}   models.DeviceStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) deviceStatuses(c *gin.Context) {
	all, err := h.services.Monitoring.Statuses(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "device_statuses_failed", err)
		return
	}
	c.JSON(http.StatusOK, all)
}
