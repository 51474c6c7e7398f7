package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type PaymentRequest struct {
	Amount int64  `json:"amount" binding:"gte=0" example:"500"`
	Type   string `json:"type" binding:"required,oneof=deposit rent collected pending" example:"rent"`
	Method string `json:"method" binding:"required,oneof=cash upi card" example:"upi"`
	Note   string `json:"note" binding:"max=300" example:"Week 12 rent"`
}

// EditPaymentsRequest sets the rider's totals. The ledger appends signed adjustments to reach them.
type EditPaymentsRequest struct {
	DepositAmount int64  `json:"depositAmount" binding:"gte=0" example:"2000"`
	PaidAmount    int64  `json:"paidAmount" binding:"gte=0" example:"1500"`
	PendingAmount int64  `json:"pendingAmount" binding:"gte=0" example:"300"`
	Note          string `json:"note" binding:"max=300" example:"Corrected cash entry"`
}

type PaymentsResponse struct {
	Records []*domain.PaymentRecord `json:"records"`
	Summary *domain.PaymentSummary  `json:"summary"`
}

type RecordPaymentResponse struct {
	Record  *domain.PaymentRecord  `json:"record"`
	Summary *domain.PaymentSummary `json:"summary"`
}

type EditPaymentsResponse struct {
	Summary     *domain.PaymentSummary  `json:"summary"`
	Adjustments []*domain.PaymentRecord `json:"adjustments"`
}

func NewPaymentHandler(
	paymentService *services.PaymentService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
		metrics:        metrics,
	}
}

// @Summary Rider payment ledger
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} PaymentsResponse
// @Router /users/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")
	records, err := h.paymentService.ListPayments(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to list payments", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}
	if records == nil {
		records = []*domain.PaymentRecord{}
	}
	summary := domain.AggregatePayments(records)

	c.JSON(http.StatusOK, PaymentsResponse{Records: records, Summary: &summary})
}

// @Summary Record payment
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body PaymentRequest true "Payment"
// @Success 201 {object} RecordPaymentResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in record payment", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	record, summary, err := h.paymentService.RecordPayment(c.Request.Context(), userID, services.PaymentInput{
		Amount: req.Amount,
		Type:   domain.PaymentType(req.Type),
		Method: domain.PaymentMethod(req.Method),
		Note:   req.Note,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to record payment", err, map[string]interface{}{
			"user_id":  userID,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusCreated, RecordPaymentResponse{Record: record, Summary: summary})
}

// @Summary Edit payment totals
// @Description Appends adjustment records so the totals match. Repeating an edit appends nothing.
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body EditPaymentsRequest true "Target totals"
// @Success 200 {object} EditPaymentsResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/payments [put]
func (h *PaymentHandler) EditPayments(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req EditPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in edit payments", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	target := domain.PaymentSummary{
		DepositAmount: req.DepositAmount,
		PaidAmount:    req.PaidAmount,
		PendingAmount: req.PendingAmount,
	}
	summary, adjustments, err := h.paymentService.EditPayments(c.Request.Context(), userID, target, req.Note)
	if err != nil {
		handleError(c, h.logger, "Failed to edit payments", err, map[string]interface{}{
			"user_id":  userID,
			"staff_id": payload.StaffID,
		})
		return
	}
	if adjustments == nil {
		adjustments = []*domain.PaymentRecord{}
	}

	c.JSON(http.StatusOK, EditPaymentsResponse{Summary: summary, Adjustments: adjustments})
}

// @Summary Projected dues
// @Description Pending amount plus pro-rated rent since the later of the last payment and the assignment.
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.Dues
// @Failure 404 {object} errorResponse
// @Router /users/{id}/dues [get]
func (h *PaymentHandler) GetDues(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")
	dues, err := h.paymentService.DuesForUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to project dues", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, dues)
}
