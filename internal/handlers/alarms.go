package handlers

import (
	"net/http"

	"soil_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      List alarms
// @Description  Filter alarms by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type and device. If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         alarms
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2024-01-01)
// @Param        to    query   string  false  "End of range"  example(2024-01-31)
// @Param        type  query   string  false  "Alarm type"  Enums(UNEXPECTED_FLOW,BATTERY_LOW)
// @Param        dev   query   string  false  "Device EUI"
// @Success      200   {object}  map[string]interface{}  "count, alarms"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/alarms [get]
// @Security     BearerAuth
func (h *Handler) listAlarms(c *gin.Context) {
	from, to, msg := parseRange(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	alarms, err := h.services.AlarmLog.List(c.Request.Context(), service.AlarmFilter{
		From:   from,
		To:     to,
		Type:   c.Query("type"),
		DevEUI: c.Query("dev"),
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load alarms", "alarms_list_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alarms),
		"alarms": alarms,
	})
}
