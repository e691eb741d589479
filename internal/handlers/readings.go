package handlers

import (
	"errors"
	"net/http"
	"time"

	"soil_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Layout of the point to delete around, as stored in relay time.
const layoutDeletePoint = "2006-01-02T15:04:05"

const (
	errGetReadings    = "failed to load readings"
	errDeleteReadings = "failed to delete readings"
	errPointInvalid   = "invalid 'point'; use YYYY-MM-DDTHH:MM:SS"
	errToleranceBad   = "invalid 'tolerance'; use a positive duration like 2s"
)

func (h *Handler) readingsError(c *gin.Context, err error, logKey string) {
	if errors.Is(err, service.ErrInvalidTimeRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, errGetReadings, logKey, err)
}

// @Summary      List readings
// @Description  Filter by relay time (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). Without bounds the last year is returned.
// @Tags         readings
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2024-01-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2024-01-31)
// @Success      200   {object}  map[string]interface{}  "count, readings"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/readings [get]
// @Security     BearerAuth
func (h *Handler) listReadings(c *gin.Context) {
	from, to, msg := parseRange(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	readings, err := h.services.Readings.Range(c.Request.Context(), from, to)
	if err != nil {
		h.readingsError(c, err, "readings_list_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}

// @Summary      Delete readings around a point
// @Description  Removes readings strictly within tolerance of point.
// @Tags         readings
// @Produce      json
// @Param        point      query  string  true   "YYYY-MM-DDTHH:MM:SS"  example(2024-01-01T10:00:00)
// @Param        tolerance  query  string  false  "Half window, default 2s"
// @Success      200  {object}  map[string]interface{}  "deleted"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings [delete]
// @Security     BearerAuth
func (h *Handler) deleteReadings(c *gin.Context) {
	point, err := time.Parse(layoutDeletePoint, c.Query("point"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errPointInvalid})
		return
	}
	tol := h.deleteTolerance
	if qs := c.Query("tolerance"); qs != "" {
		d, err := time.ParseDuration(qs)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToleranceBad})
			return
		}
		tol = d
	}

	n, err := h.services.Readings.DeleteAround(c.Request.Context(), point, tol)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteReadings, "readings_delete_failed", err, "point", point)
		return
	}
	if h.log != nil {
		h.log.Infow("readings_deleted", "point", point, "tolerance", tol, "count", n, "operator_id", c.GetInt(operatorCtxKey))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
