package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/feuerwehr_melder/internal/broadcast"
	"github.com/shenikar/feuerwehr_melder/internal/events"
)

// @Summary Get dashboard options
// @Tags Options
// @Produce json
// @Success 200 {object} OptionsResponse
// @Router /options [get]
func (h *Handler) getOptions(c *gin.Context) {
	log := h.logger.WithField("method", "getOptions")

	options, err := h.optionsService.GetOptions(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err, "options")
		return
	}
	c.JSON(http.StatusOK, ModelToOptionsResponse(options))
}

// @Summary Update dashboard options
// @Tags Options
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param options body UpdateOptionsRequest true "Options update request"
// @Success 200 {object} OptionsResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Router /options [put]
func (h *Handler) updateOptions(c *gin.Context) {
	log := h.logger.WithField("method", "updateOptions")

	var input UpdateOptionsRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	options, err := h.optionsService.UpdateOptions(c.Request.Context(), DTOToOptionsPatch(input))
	if err != nil {
		h.respondError(c, log, err, "options")
		return
	}
	c.JSON(http.StatusOK, ModelToOptionsResponse(options))
}

// @Summary Trigger an alarm
// @Description Broadcast an alarm message to every connected dashboard. Requires API key.
// @Tags System
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param alarm body TriggerAlarmRequest false "Alarm message"
// @Success 200 {object} map[string]string "Alarm triggered"
// @Failure 503 {object} map[string]string "Event queue is full"
// @Router /system/trigger-alarm [post]
func (h *Handler) triggerAlarm(c *gin.Context) {
	log := h.logger.WithField("method", "triggerAlarm")

	var input TriggerAlarmRequest
	// тело необязательно
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := events.DefaultAlarmMessage
	if input.Message != nil {
		message = *input.Message
	}

	if err := h.publisher.Publish(c.Request.Context(), events.NewAlarmMessage(message)); err != nil {
		log.WithError(err).Error("Failed to enqueue alarm")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alarm could not be queued"})
		return
	}
	log.Info("Alarm triggered")
	c.JSON(http.StatusOK, gin.H{"status": "alarm triggered"})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Subscribers: h.hub.Count()})
}

// serveWebSocket подписывает соединение на рассылку событий
func (h *Handler) serveWebSocket(c *gin.Context) {
	broadcast.ServeWebSocket(h.hub, c.Writer, c.Request, h.cfg.WSWriteTimeout, h.logger)
}
