package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

type UserHandler struct {
	userService *services.UserService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type UserRequest struct {
	UserName  string  `json:"userName" binding:"required,max=100" example:"Ravi Kumar"`
	UserPhone string  `json:"userPhone" binding:"max=20" example:"9876543210"`
	CompanyID *string `json:"companyId" example:"7b0f3c1e-2d4a-4f7e-9a51-6c2b8e0d1f33"`
}

type CallRequest struct {
	CallStatus string `json:"callStatus" binding:"omitempty,oneof=pending done" example:"pending"`
	CallNote   string `json:"callNote" binding:"max=500" example:"Promised to pay on Friday"`
}

func NewUserHandler(
	userService *services.UserService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
		metrics:     metrics,
	}
}

func (r UserRequest) profile() domain.UserProfile {
	return domain.UserProfile{UserName: r.UserName, UserPhone: r.UserPhone, CompanyID: r.CompanyID}
}

// @Summary Create rider
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UserRequest true "Rider"
// @Success 201 {object} domain.User
// @Failure 400 {object} errorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateUser", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create user", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.profile())
	if err != nil {
		handleError(c, h.logger, "Failed to create user", err, map[string]interface{}{
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary Get rider
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} errorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to get user", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary List riders
// @Description Newest first. search matches the name, status the renting flag.
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param search query string false "Name substring"
// @Param status query bool false "Renting"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.User]
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	params, err := listParamsFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid user listing query", err, nil)
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, "Failed to list users", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, params.Limit, params.Offset))
}

// @Summary List riders with pending dues
// @Description Largest pendingAmount first.
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.User]
// @Router /users/pending [get]
func (h *UserHandler) ListPendingDues(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid pending listing query", err, nil)
		return
	}

	page, err := h.userService.ListPendingDues(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, h.logger, "Failed to list pending dues", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, limit, offset))
}

// @Summary Update rider profile
// @Description Edits name, phone and company. Flow fields are not editable.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UserRequest true "Rider"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
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

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update user", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, req.profile())
	if err != nil {
		handleError(c, h.logger, "Failed to update user", err, map[string]interface{}{
			"user_id":  userID,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Delete rider
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} successResponse
// @Failure 400 {object} errorResponse "Rider still holds a bike or battery"
// @Failure 403 {object} errorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
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

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		handleError(c, h.logger, "Failed to delete user", err, map[string]interface{}{
			"user_id":  userID,
			"staff_id": payload.StaffID,
		})
		return
	}

	h.logger.Info("User deleted successfully", map[string]interface{}{
		"user_id":  userID,
		"staff_id": payload.StaffID,
	})
	c.JSON(http.StatusOK, successResponse{Message: "User deleted successfully"})
}

// @Summary Block rider
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Router /users/{id}/block [post]
func (h *UserHandler) BlockUser(c *gin.Context) {
	h.setBlocked(c, true)
}

// @Summary Unblock rider
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Router /users/{id}/unblock [post]
func (h *UserHandler) UnblockUser(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *UserHandler) setBlocked(c *gin.Context, blocked bool) {
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

	user, err := h.userService.SetBlocked(c.Request.Context(), userID, blocked)
	if err != nil {
		handleError(c, h.logger, "Failed to change block state", err, map[string]interface{}{
			"user_id":  userID,
			"blocked":  blocked,
			"staff_id": payload.StaffID,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Set call follow-up
// @Description An empty callStatus clears the follow-up.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body CallRequest true "Follow-up"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorResponse
// @Router /users/{id}/call [put]
func (h *UserHandler) SetCall(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")

	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in set call", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.SetCall(c.Request.Context(), userID, domain.CallStatus(req.CallStatus), req.CallNote)
	if err != nil {
		handleError(c, h.logger, "Failed to set call follow-up", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Rider swap history
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.SwapRecord]
// @Failure 404 {object} errorResponse
// @Router /users/{id}/swaps [get]
func (h *UserHandler) ListUserSwaps(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")
	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid swap listing query", err, nil)
		return
	}

	page, err := h.userService.ListUserSwaps(c.Request.Context(), userID, limit, offset)
	if err != nil {
		handleError(c, h.logger, "Failed to list user swaps", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, newPage(page, limit, offset))
}

// @Summary Recent swaps
// @Tags swaps
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.SwapRecord]
// @Router /swaps [get]
func (h *UserHandler) ListSwaps(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid swap listing query", err, nil)
		return
	}

	page, err := h.userService.ListSwaps(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, h.logger, "Failed to list swaps", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, limit, offset))
}
