package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Time format of the dashboard's /query parameters.
const layoutLegacyQuery = "2006-01-02_15:04:05"

const (
	welcomeHTML           = "<b>Congratulations! Welcome to Soil Parameter!</b>"
	msgDeleteDisabled     = "delete feature disabled for security reasons"
	errLegacyStartInvalid = "invalid 'start'; use YYYY-MM-DD_HH:MM:SS"
	errLegacyEndInvalid   = "invalid 'end'; use YYYY-MM-DD_HH:MM:SS"
)

// @Summary      Welcome page
// @Tags         dashboard
// @Produce      html
// @Success      200  {string}  string
// @Router       / [get]
func (h *Handler) welcome(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(welcomeHTML))
}

// @Summary      Latest values of a station
// @Description  Returns the newest reading of the device, or an empty object when there is none.
// @Tags         dashboard
// @Produce      json
// @Param        dev  query  string  false  "Device EUI"  example(78AF580300000485)
// @Success      200  {object}  models.SensorReading
// @Failure      500  {object}  map[string]string
// @Router       /devices [get]
func (h *Handler) latestValues(c *gin.Context) {
	dev := c.Query("dev")
	if dev == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	rd, err := h.services.Readings.Latest(c.Request.Context(), dev)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load readings", "latest_values_failed", err, "dev_eui", dev)
		return
	}
	if rd == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.IndentedJSON(http.StatusOK, rd)
}

// @Summary      Download every reading
// @Tags         dashboard
// @Produce      json
// @Success      200  {array}   models.SensorReading
// @Failure      500  {object}  map[string]string
// @Router       /json [get]
func (h *Handler) dumpJSON(c *gin.Context) {
	all, err := h.services.Readings.All(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load readings", "dump_readings_failed", err)
		return
	}
	c.Header("Content-Disposition", "attachment;filename=database.json")
	c.JSON(http.StatusOK, all)
}

// @Summary      Query readings by time
// @Description  Readings between start and end (default: the last year up to two hours ahead). Deletion through this route is disabled.
// @Tags         dashboard
// @Produce      json
// @Param        start     query  string  false  "YYYY-MM-DD_HH:MM:SS"
// @Param        end       query  string  false  "YYYY-MM-DD_HH:MM:SS"
// @Success      200  {array}   models.SensorReading
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /query [get]
func (h *Handler) queryReadings(c *gin.Context) {
	if _, ok := c.GetQuery("delete"); ok {
		c.String(http.StatusOK, msgDeleteDisabled)
		return
	}
	if _, ok := c.GetQuery("delpoint"); ok {
		c.String(http.StatusOK, msgDeleteDisabled)
		return
	}

	var start, end time.Time
	if qs := c.Query("start"); qs != "" {
		t, err := time.Parse(layoutLegacyQuery, qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLegacyStartInvalid})
			return
		}
		start = t
	}
	if qs := c.Query("end"); qs != "" {
		t, err := time.Parse(layoutLegacyQuery, qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLegacyEndInvalid})
			return
		}
		end = t
	}

	readings, err := h.services.Readings.Range(c.Request.Context(), start, end)
	if err != nil {
		h.readingsError(c, err, "query_readings_failed")
		return
	}
	c.JSON(http.StatusOK, readings)
}
