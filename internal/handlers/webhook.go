package handlers

import (
	"errors"
	"net/http"

	"soil_monitor/internal/downlink"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Relay-facing error texts. The last two are what the stations' integration
// has always matched on.
const (
	msgMalformedFrame   = "malformed frame"
	msgBadRelayTime     = "invalid relay timestamp"
	msgUnknownControl   = "something went wrong"
	msgUnknownDevice    = "device type not recognised"
	msgDownlinkFailed   = "downlink failed"
	msgStorageFailed    = "storage failure"
	msgBadUplinkRequest = "invalid uplink notification"
)

// UplinkNotification is the part of the ThingPark uplink report the receiver reads.
type UplinkNotification struct {
	Uplink *UplinkReport `json:"DevEUI_uplink" binding:"required"`
}

// UplinkReport carries one LoRaWAN frame as reported by the relay.
type UplinkReport struct {
	DevEUI     string `json:"DevEUI" binding:"required" example:"78AF580300000485"`
	PayloadHex string `json:"payload_hex" example:"04B21A3200140032012C"`
	Time       string `json:"Time" binding:"required" example:"2024-01-01T10:00:00.000000+02:00"`
}

// @Summary      Relay uplink webhook
// @Description  Decodes a station frame: stores sensor readings, records alarms, answers time and schedule requests with a downlink.
// @Tags         relay
// @Accept       json
// @Produce      plain
// @Param        body  body  UplinkNotification  true  "ThingPark uplink report"
// @Success      200  {string}  string  "Datapoint DevEUI <eui> saved | Data Sent | Next Steps Sent | Unexpected Flow | Battery Low"
// @Failure      400  {string}  string
// @Failure      422  {string}  string
// @Failure      500  {string}  string
// @Failure      502  {string}  string
// @Router       /sc_lpn [post]
func (h *Handler) receiveUplink(c *gin.Context) {
	var body UplinkNotification
	if err := c.ShouldBindJSON(&body); err != nil {
		if h.log != nil {
			h.log.Infow("uplink_bad_request_body", "err", err)
		}
		c.String(http.StatusBadRequest, msgBadUplinkRequest)
		return
	}

	req := service.UplinkRequest{
		DevEUI:     body.Uplink.DevEUI,
		PayloadHex: body.Uplink.PayloadHex,
		Time:       body.Uplink.Time,
	}
	out, err := h.services.Uplink.Handle(c.Request.Context(), req)
	if err != nil {
		code, msg := uplinkErrorResponse(err)
		if h.log != nil && code >= http.StatusInternalServerError {
			h.log.Errorw("uplink_failed", "dev_eui", req.DevEUI, "status", code, "err", err)
		}
		c.String(code, msg)
		return
	}

	c.String(http.StatusOK, out.Message)
}

// uplinkErrorResponse maps uplink failures to one status and text each.
func uplinkErrorResponse(err error) (int, string) {
	var (
		malformed    *protocol.MalformedFrameError
		badTime      *protocol.TimeParseError
		unknownByte  *protocol.UnknownControlByteError
		unrecognized *protocol.UnrecognizedDeviceError
		transport    *downlink.TransportError
	)
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest, msgMalformedFrame
	case errors.As(err, &badTime):
		return http.StatusBadRequest, msgBadRelayTime
	case errors.As(err, &unknownByte):
		return http.StatusBadRequest, msgUnknownControl
	case errors.As(err, &unrecognized):
		return http.StatusUnprocessableEntity, msgUnknownDevice
	case errors.As(err, &transport):
		return http.StatusBadGateway, msgDownlinkFailed
	default:
		return http.StatusInternalServerError, msgStorageFailed
	}
}
