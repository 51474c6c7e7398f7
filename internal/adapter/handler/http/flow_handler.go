package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

// FlowHandler exposes the assign, swap and return flows.
type FlowHandler struct {
	coordinator *services.Coordinator
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

func NewFlowHandler(
	coordinator *services.Coordinator,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *FlowHandler {
	return &FlowHandler{
		coordinator: coordinator,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Assign bike and battery
// @Description Gives an available bike and battery to a rider who holds nothing.
// @Tags flows
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.AssignRequest true "Assignment"
// @Success 200 {object} domain.AssignResult
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse "Rider is blocked"
// @Failure 409 {object} errorResponse "Concurrent change"
// @Failure 500 {object} errorResponse "Partial failure, carries reconciliationId"
// @Router /flows/assign [post]
func (h *FlowHandler) Assign(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in assign", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.coordinator.Assign(c.Request.Context(), req)
	if err != nil {
		handleError(c, h.logger, "Assignment failed", err, map[string]interface{}{
			"user_id":    req.UserID,
			"bike_id":    req.BikeID,
			"battery_id": req.BatteryID,
			"staff_id":   payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Swap battery
// @Description Replaces the rider's battery and records the swap. A counter failure is reported in counterError without failing the swap.
// @Tags flows
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.SwapRequest true "Swap"
// @Success 200 {object} domain.SwapResult
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse "Rider is blocked"
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /flows/swap [post]
func (h *FlowHandler) Swap(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in swap", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.coordinator.Swap(c.Request.Context(), req)
	if err != nil {
		handleError(c, h.logger, "Swap failed", err, map[string]interface{}{
			"user_id":        req.UserID,
			"old_battery_id": req.OldBatteryID,
			"new_battery_id": req.NewBatteryID,
			"staff_id":       payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Return bike and battery
// @Description Releases whatever the rider holds and reports the dues owed at return.
// @Tags flows
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.ReturnRequest true "Return"
// @Success 200 {object} domain.ReturnResult
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /flows/return [post]
func (h *FlowHandler) Return(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in return", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.coordinator.Return(c.Request.Context(), req)
	if err != nil {
		handleError(c, h.logger, "Return failed", err, map[string]interface{}{
			"user_id":  req.UserID,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
