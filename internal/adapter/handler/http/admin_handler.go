package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

// AdminHandler serves the daily counter and the reconciliation sweep.
type AdminHandler struct {
	counterService   *services.CounterService
	reconcileService *services.ReconcileService
	logger           ports.LoggerPort
	metrics          ports.MetricsPort
}

type CounterResponse struct {
	TodayDate      string `json:"todayDate" example:"2024-05-01"`
	TodaySwapCount int    `json:"todaySwapCount" example:"42"`
}

func NewAdminHandler(
	counterService *services.CounterService,
	reconcileService *services.ReconcileService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *AdminHandler {
	return &AdminHandler{
		counterService:   counterService,
		reconcileService: reconcileService,
		logger:           logger,
		metrics:          metrics,
	}
}

// @Summary Today's swap count
// @Description The day is taken in the region's timezone.
// @Tags counters
// @Security BearerAuth
// @Produce json
// @Success 200 {object} CounterResponse
// @Router /counters/today [get]
func (h *AdminHandler) GetTodayCounter(c *gin.Context) {
	h.getCounter(c, h.counterService.Today())
}

// @Summary Swap count for a day
// @Tags counters
// @Security BearerAuth
// @Produce json
// @Param date path string true "Day as YYYY-MM-DD"
// @Success 200 {object} CounterResponse
// @Failure 400 {object} errorResponse
// @Router /counters/{date} [get]
func (h *AdminHandler) GetCounter(c *gin.Context) {
	h.getCounter(c, c.Param("date"))
}

func (h *AdminHandler) getCounter(c *gin.Context, day string) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	count, err := h.counterService.Get(c.Request.Context(), day)
	if err != nil {
		handleError(c, h.logger, "Failed to get daily counter", err, map[string]interface{}{
			"day": day,
		})
		return
	}

	c.JSON(http.StatusOK, CounterResponse{TodayDate: day, TodaySwapCount: count})
}

// @Summary Recount a day
// @Description Overwrites the day's counter with the number of swap records of that day.
// @Tags counters
// @Security BearerAuth
// @Produce json
// @Param date path string true "Day as YYYY-MM-DD"
// @Success 200 {object} CounterResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /counters/{date}/recount [post]
func (h *AdminHandler) RecountDay(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	day := c.Param("date")
	count, err := h.counterService.RecountDay(c.Request.Context(), day)
	if err != nil {
		handleError(c, h.logger, "Failed to recount day", err, map[string]interface{}{
			"day": day,
		})
		return
	}

	c.JSON(http.StatusOK, CounterResponse{TodayDate: day, TodaySwapCount: count})
}

// @Summary Run reconciliation sweep
// @Description Releases orphaned bikes and batteries and repairs rider pointers.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.ReconcileReport
// @Failure 403 {object} errorResponse
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	report, err := h.reconcileService.Sweep(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, "Reconciliation sweep failed", err, nil)
		return
	}

	c.JSON(http.StatusOK, report)
}
