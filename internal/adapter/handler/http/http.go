package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

type BikeHandler struct {
	bikeService *services.BikeService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type BikeRequest struct {
	BikeRegNum string `json:"bikeRegNum" binding:"required,max=32" example:"KA01AB1234"`
	BikeModel  string `json:"bikeModel" binding:"max=100" example:"Hero Electric Optima"`
}

func NewBikeHandler(
	bikeService *services.BikeService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BikeHandler {
	return &BikeHandler{
		bikeService: bikeService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Create bike
// @Description Adds a bike to the available pool
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BikeRequest true "Bike"
// @Success 201 {object} domain.Bike
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 409 {object} errorResponse "Registration number taken"
// @Router /bikes [post]
func (h *BikeHandler) CreateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateBike", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.CreateBike(c.Request.Context(), req.BikeRegNum, req.BikeModel)
	if err != nil {
		handleError(c, h.logger, "Failed to create bike", err, map[string]interface{}{
			"reg_num":  req.BikeRegNum,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusCreated, bike)
}

// @Summary Get bike
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Success 200 {object} domain.Bike
// @Failure 404 {object} errorResponse
// @Router /bikes/{id} [get]
func (h *BikeHandler) GetBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("id")
	bike, err := h.bikeService.GetBikeByID(c.Request.Context(), bikeID)
	if err != nil {
		handleError(c, h.logger, "Failed to get bike", err, map[string]interface{}{
			"bike_id": bikeID,
		})
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary List bikes
// @Description Newest first. search matches the registration number, status the assigned flag.
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param search query string false "Registration number substring"
// @Param status query bool false "Assigned"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.Bike]
// @Router /bikes [get]
func (h *BikeHandler) ListBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	params, err := listParamsFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid bike listing query", err, nil)
		return
	}

	page, err := h.bikeService.ListBikes(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, "Failed to list bikes", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, params.Limit, params.Offset))
}

// @Summary List available bikes
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param search query string false "Registration number substring"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.Bike]
// @Router /bikes/available [get]
func (h *BikeHandler) ListAvailableBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid bike listing query", err, nil)
		return
	}

	page, err := h.bikeService.ListAvailableBikes(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		handleError(c, h.logger, "Failed to list available bikes", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, limit, offset))
}

// @Summary Update bike
// @Description Edits the registration number and model. Assignment fields are owned by the flows.
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bike ID"
// @Param request body BikeRequest true "Bike"
// @Success 200 {object} domain.Bike
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /bikes/{id} [put]
func (h *BikeHandler) UpdateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to UpdateBike", map[string]interface{}{
			"bike_id": bikeID,
			"ip":      c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.UpdateBike(c.Request.Context(), bikeID, req.BikeRegNum, req.BikeModel)
	if err != nil {
		handleError(c, h.logger, "Failed to update bike", err, map[string]interface{}{
			"bike_id":  bikeID,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, bike)
}

// @Summary Delete bike
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bike ID"
// @Success 200 {object} successResponse
// @Failure 400 {object} errorResponse "Bike is assigned"
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /bikes/{id} [delete]
func (h *BikeHandler) DeleteBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.bikeService.DeleteBike(c.Request.Context(), bikeID); err != nil {
		handleError(c, h.logger, "Failed to delete bike", err, map[string]interface{}{
			"bike_id":  bikeID,
			"staff_id": payload.StaffID,
		})
		return
	}

	h.logger.Info("Bike deleted successfully", map[string]interface{}{
		"bike_id":  bikeID,
		"staff_id": payload.StaffID,
	})
	c.JSON(http.StatusOK, successResponse{Message: "Bike deleted successfully"})
}
