package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type errorResponse struct {
	Error            string `json:"error" example:"Bike not found"`
	Field            string `json:"field,omitempty" example:"newBatteryId"`
	ReconciliationID string `json:"reconciliationId,omitempty"`
}

type successResponse struct {
	Message string `json:"message" example:"Bike deleted successfully"`
}

type pageResponse[T any] struct {
	Items  []*T `json:"items"`
	Total  int  `json:"total"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
}

func newErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, errorResponse{Error: message})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var partial *domain.PartialFailure
	var conflict *domain.ConflictError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrUserBlocked):
		return http.StatusForbidden
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError logs err and writes the mapped status. Internal errors are not echoed to the client.
func handleError(c *gin.Context, logger ports.LoggerPort, msg string, err error, fields map[string]interface{}) {
	code := statusFor(err)
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()
	fields["status"] = code
	if code >= http.StatusInternalServerError {
		logger.Error(msg, fields)
	} else {
		logger.Warn(msg, fields)
	}

	resp := errorResponse{Error: err.Error()}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}
	var partial *domain.PartialFailure
	if errors.As(err, &partial) {
		resp.Error = msg
		resp.ReconciliationID = partial.ReconciliationID
	} else if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		resp.Error = msg
	}
	c.JSON(code, resp)
}

// pagingFromQuery reads limit and offset; the services clamp them.
func pagingFromQuery(c *gin.Context) (int, int, error) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func listParamsFromQuery(c *gin.Context) (domain.ListParams, error) {
	limit, offset, err := pagingFromQuery(c)
	if err != nil {
		return domain.ListParams{}, err
	}
	params := domain.ListParams{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ListParams{}, &domain.ValidationError{Field: "status", Reason: "must be true or false"}
		}
		params.Status = &status
	}
	return params, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: key, Reason: "must be a non-negative integer"}
	}
	return n, nil
}

func newPage[T any](page *domain.Page[T], limit, offset int) pageResponse[T] {
	items := page.Items
	if items == nil {
		items = []*T{}
	}
	return pageResponse[T]{Items: items, Total: page.Total, Limit: limit, Offset: offset}
}
