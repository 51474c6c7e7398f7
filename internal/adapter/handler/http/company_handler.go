package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
)

type CompanyHandler struct {
	companyService *services.CompanyService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type CompanyRequest struct {
	CompanyName  string `json:"companyName" binding:"required,max=100" example:"Swiggy Koramangala"`
	ContactName  string `json:"contactName" binding:"max=100" example:"Anita"`
	ContactPhone string `json:"contactPhone" binding:"max=20" example:"9123456780"`
	Address      string `json:"address" binding:"max=300" example:"80 Feet Road, Bengaluru"`
}

func NewCompanyHandler(
	companyService *services.CompanyService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
		metrics:        metrics,
	}
}

func (r CompanyRequest) input() services.CompanyInput {
	return services.CompanyInput{
		CompanyName:  r.CompanyName,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
	}
}

// @Summary Create company
// @Tags companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CompanyRequest true "Company"
// @Success 201 {object} domain.Company
// @Failure 400 {object} errorResponse
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create company", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), req.input())
	if err != nil {
		handleError(c, h.logger, "Failed to create company", err, nil)
		return
	}

	c.JSON(http.StatusCreated, company)
}

// @Summary Get company
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} domain.Company
// @Failure 404 {object} errorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	companyID := c.Param("id")
	company, err := h.companyService.GetCompanyByID(c.Request.Context(), companyID)
	if err != nil {
		handleError(c, h.logger, "Failed to get company", err, map[string]interface{}{
			"company_id": companyID,
		})
		return
	}

	c.JSON(http.StatusOK, company)
}

// @Summary List companies
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param search query string false "Name substring"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} pageResponse[domain.Company]
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	params, err := listParamsFromQuery(c)
	if err != nil {
		handleError(c, h.logger, "Invalid company listing query", err, nil)
		return
	}

	page, err := h.companyService.ListCompanies(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, "Failed to list companies", err, nil)
		return
	}

	c.JSON(http.StatusOK, newPage(page, params.Limit, params.Offset))
}

// @Summary Update company
// @Tags companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param request body CompanyRequest true "Company"
// @Success 200 {object} domain.Company
// @Failure 404 {object} errorResponse
// @Router /companies/{id} [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	companyID := c.Param("id")

	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update company", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), companyID, req.input())
	if err != nil {
		handleError(c, h.logger, "Failed to update company", err, map[string]interface{}{
			"company_id": companyID,
		})
		return
	}

	c.JSON(http.StatusOK, company)
}

// @Summary Delete company
// @Tags companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} successResponse
// @Failure 400 {object} errorResponse "Company still has riders"
// @Failure 403 {object} errorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	companyID := c.Param("id")
	if err := h.companyService.DeleteCompany(c.Request.Context(), companyID); err != nil {
		handleError(c, h.logger, "Failed to delete company", err, map[string]interface{}{
			"company_id": companyID,
		})
		return
	}

	c.JSON(http.StatusOK, successResponse{Message: "Company deleted successfully"})
}
