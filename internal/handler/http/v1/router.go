package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1.
// Изменяющие запросы проходят через APIKeyAuthMiddleware.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	auth := APIKeyAuthMiddleware(h.cfg, h.logger)

	// Маршруты для управления инцидентами (CRUD)
	incidents := api.Group("/incidents")
	{
		incidents.POST("", auth, h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id", auth, h.updateIncident)
		incidents.DELETE("/:id", auth, h.deleteIncident)
	}

	vehicles := api.Group("/vehicles")
	{
		vehicles.POST("", auth, h.createVehicle)
		vehicles.GET("", h.listVehicles)
		vehicles.GET("/:id", h.getVehicle)
		vehicles.PUT("/:id", auth, h.updateVehicle)
		vehicles.DELETE("/:id", auth, h.deleteVehicle)
	}

	api.GET("/options", h.getOptions)
	api.PUT("/options", auth, h.updateOptions)

	// Системные маршруты
	api.POST("/system/trigger-alarm", auth, h.triggerAlarm)
	api.GET("/system/health", h.healthCheck)
}

// RegisterWebSocketRoute подключает /ws к корню роутера
func (h *Handler) RegisterWebSocketRoute(router gin.IRoutes) {
	router.GET("/ws", h.serveWebSocket)
}
