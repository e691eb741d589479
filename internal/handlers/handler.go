package handlers

import (
	"time"

	"soil_monitor/internal/logger"
	"soil_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services        *service.Service
	log             *logger.Logger
	deleteTolerance time.Duration
}

// Option customizes a Handler.
type Option func(*Handler)

// WithDeleteTolerance sets the half-width of the window removed by
// DELETE /api/v1/readings when the request does not name one.
func WithDeleteTolerance(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.deleteTolerance = d
		}
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log, deleteTolerance: service.DefaultDeleteTolerance}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	// Relay webhook and the routes the field dashboard already uses.
	router.POST("/sc_lpn", h.receiveUplink)
	h.registerLegacyRoutes(router)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerLegacyRoutes(r *gin.Engine) {
	r.GET("/", h.welcome)
	r.GET("/devices", h.latestValues)
	r.GET("/json", h.dumpJSON)
	r.GET("/query", h.queryReadings)
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorIdMiddleware)
	{
		h.registerReadingRoutes(api)
		h.registerAlarmRoutes(api)
		h.registerDeviceRoutes(api)
	}
}

func (h *Handler) registerReadingRoutes(api *gin.RouterGroup) {
	readings := api.Group("/readings")
	{
		readings.GET("", h.listReadings)
		// ?point=2024-01-01T10:00:00[&tolerance=2s]
		readings.DELETE("", h.deleteReadings)
	}
}

func (h *Handler) registerAlarmRoutes(api *gin.RouterGroup) {
	api.GET("/alarms", h.listAlarms)
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.deviceStatuses)
		devices.GET("/:eui/status", h.deviceStatus)
	}
}
