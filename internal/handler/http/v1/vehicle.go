package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Create a vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param vehicle body CreateVehicleRequest true "Vehicle creation request"
// @Success 201 {object} VehicleResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Vehicle name already taken"
// @Router /vehicles [post]
func (h *Handler) createVehicle(c *gin.Context) {
	var input CreateVehicleRequest
	log := h.logger.WithField("method", "createVehicle")

	if !h.bindJSON(c, log, &input) {
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), DTOToVehicleInput(input))
	if err != nil {
		h.respondError(c, log, err, "vehicle")
		return
	}
	c.JSON(http.StatusCreated, ModelToVehicleResponse(vehicle))
}

// @Summary List vehicles
// @Tags Vehicles
// @Produce json
// @Param skip query int false "Number of vehicles to skip" default(0)
// @Param limit query int false "Maximum number of vehicles" default(100)
// @Success 200 {array} VehicleResponse
// @Router /vehicles [get]
func (h *Handler) listVehicles(c *gin.Context) {
	log := h.logger.WithField("method", "listVehicles")
	skip, limit, ok := parsePage(c)
	if !ok {
		return
	}

	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context(), skip, limit)
	if err != nil {
		h.respondError(c, log, err, "vehicle")
		return
	}
	c.JSON(http.StatusOK, ModelsToVehicleResponses(vehicles))
}

// @Summary Get vehicle by ID
// @Tags Vehicles
// @Produce json
// @Param id path int true "Vehicle ID"
// @Success 200 {object} VehicleResponse
// @Failure 404 {object} map[string]string "Vehicle not found"
// @Router /vehicles/{id} [get]
func (h *Handler) getVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getVehicle").WithField("id", id)

	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, "vehicle")
		return
	}
	c.JSON(http.StatusOK, ModelToVehicleResponse(vehicle))
}

// @Summary Update a vehicle
// @Tags Vehicles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Vehicle ID"
// @Param vehicle body UpdateVehicleRequest true "Vehicle update request"
// @Success 200 {object} VehicleResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Vehicle not found"
// @Failure 409 {object} map[string]string "Vehicle name already taken"
// @Router /vehicles/{id} [put]
func (h *Handler) updateVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateVehicle").WithField("id", id)

	var input UpdateVehicleRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), id, DTOToVehiclePatch(input))
	if err != nil {
		h.respondError(c, log, err, "vehicle")
		return
	}
	c.JSON(http.StatusOK, ModelToVehicleResponse(vehicle))
}

// @Summary Delete a vehicle
// @Description Delete a vehicle. It is removed from every incident it was assigned to. Requires API key.
// @Tags Vehicles
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Vehicle ID"
// @Success 200 {object} VehicleResponse
// @Failure 404 {object} map[string]string "Vehicle not found"
// @Router /vehicles/{id} [delete]
func (h *Handler) deleteVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteVehicle").WithField("id", id)

	vehicle, err := h.vehicleService.DeleteVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, "vehicle")
		return
	}
	c.JSON(http.StatusOK, ModelToVehicleResponse(vehicle))
}
