package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"dialbed/internal/logger"
	"dialbed/internal/service"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/pair", h.pair)
	}

	api := router.Group("/api/v1", h.authMiddleware)
	{
		zones := api.Group("/zones")
		{
			zones.GET("", h.listZones)
			zones.GET("/:zone", h.getZone)
			zones.PUT("/:zone/setpoint", h.setSetpoint)
			zones.PUT("/:zone/power", h.setPower)
			zones.PUT("/:zone/endpoint", h.setEndpoint)
			zones.POST("/:zone/activate", h.activateZone)
		}
		api.GET("/events", h.getEvents)
	}

	// Live state stream, same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
