package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultHandler serves recorded results: the student's own history and the
// teacher-facing listing and export.
type ResultHandler struct {
	BaseHandler
	service services.ResultService
}

func NewResultHandler(service services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetMyResults returns the authenticated student's results together with how
// many attempts they have left.
func (h *ResultHandler) GetMyResults(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	results, err := h.service.GetStudentResults(c.Request.Context(), user.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	remaining, err := h.service.AttemptsRemaining(c.Request.Context(), user.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"results":            results,
		"attempts_remaining": remaining,
	}})
}

// ListResults returns results across all students, filtered by query
// parameters. Teacher only.
func (h *ResultHandler) ListResults(c *gin.Context) {
	h.LogRequest(c, "Listing results")

	filters := repositories.ResultFilters{
		Email: c.Query("email"),
	}
	if passedStr := c.Query("passed"); passedStr != "" {
		passed, err := strconv.ParseBool(passedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_payload",
				Message: "passed must be true or false",
			})
			return
		}
		filters.Passed = &passed
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && offset >= 0 {
		filters.Offset = offset
	}

	results, total, err := h.service.ListResults(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"results": results,
		"total":   total,
	}})
}

// ExportResults streams all results as an XLSX workbook. Teacher only.
func (h *ResultHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "Exporting results workbook")

	data, err := h.service.ExportResults(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("test_results_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
