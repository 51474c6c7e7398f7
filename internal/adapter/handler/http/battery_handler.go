package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

type BatteryHandler struct {
	batteryService *services.BatteryService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type BatteryRequest struct {
	BatRegNum string `json:"batRegNum" binding:"required,max=32" example:"BAT-0042"`
}

func NewBatteryHandler(
	batteryService *services.BatteryService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BatteryHandler {
	return &BatteryHandler{
		batteryService: batteryService,
		logger:         logger,
		metrics:        metrics,
	}
}

// @Summary Create battery
// @Tags batteries
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BatteryRequest true "Battery"
// @Success 201 {object} domain.Battery
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse "Registration number taken"
// @Router /batteries [post]
func (h *BatteryHandler) CreateBattery(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateBattery", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BatteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create battery", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	battery, err := h.batteryService.CreateBattery(c.Request.Context(), req.BatRegNum)
	if err != nil {
		handleError(c, h.logger, "Failed to create battery", err, map[string]interface{}{
			"reg_num":  req.BatRegNum,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusCreated, battery)
}

// @Summary Get battery
// @Tags batteries
// @Security BearerAuth
// @Produce json
// @Param id path string true "Battery ID"
// @Success 200 {object} domain.Battery
// @Failure 404 {object} errorResponse
// @Router /batteries/{id} [get]
func (h *BatteryHandler) GetBattery(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	batteryID := c.Param("id")
	battery, err := h.batteryService.GetBatteryByID(c.Request.Context(), batteryID)
	if err != nil {
		handleError(c, h.logger, "Failed to get battery", err, map[string]interface{}{
			"battery_id": batteryID,
		})
		return
	}

	c.JSON(http.StatusOK, battery)
}

// @Summary List batteries
// @Tags batteries
// @Security BearerAuth
// @Produce json
// @Param search query string false "Registration number substring"
// @Param status query bool false "Assigned"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.Battery]
// @Router /batteries [get]
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	params, err := listParamsFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid battery listing query", err, nil)
		return
	}

	page, err := h.batteryService.ListBatteries(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, "Failed to list batteries", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, params.Limit, params.Offset))
}

// @Summary List available batteries
// @Tags batteries
// @Security BearerAuth
// @Produce json
// @Param search query string false "Registration number substring"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.Battery]
// @Router /batteries/available [get]
func (h *BatteryHandler) ListAvailableBatteries(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid battery listing query", err, nil)
		return
	}

	page, err := h.batteryService.ListAvailableBatteries(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		handleError(c, h.logger, "Failed to list available batteries", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, limit, offset))
}

// @Summary Update battery
// @Tags batteries
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Battery ID"
// @Param request body BatteryRequest true "Battery"
// @Success 200 {object} domain.Battery
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /batteries/{id} [put]
func (h *BatteryHandler) UpdateBattery(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	batteryID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BatteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update battery", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	battery, err := h.batteryService.UpdateBattery(c.Request.Context(), batteryID, req.BatRegNum)
	if err != nil {
		handleError(c, h.logger, "Failed to update battery", err, map[string]interface{}{
			"battery_id": batteryID,
			"staff_id":   payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, battery)
}

// @Summary Delete battery
// @Tags batteries
// @Security BearerAuth
// @Produce json
// @Param id path string true "Battery ID"
// @Success 200 {object} successResponse
// @Failure 400 {object} errorResponse "Battery is assigned"
// @Failure 403 {object} errorResponse
// @Router /batteries/{id} [delete]
func (h *BatteryHandler) DeleteBattery(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	batteryID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.batteryService.DeleteBattery(c.Request.Context(), batteryID); err != nil {
		handleError(c, h.logger, "Failed to delete battery", err, map[string]interface{}{
			"battery_id": batteryID,
			"staff_id":   payload.StaffID,
		})
		return
	}

	h.logger.Info("Battery deleted successfully", map[string]interface{}{
		"battery_id": batteryID,
		"staff_id":   payload.StaffID,
	})
	c.JSON(http.StatusOK, successResponse{Message: "Battery deleted successfully"})
}
