package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/utils"
)

// DashboardHandler serves the teacher's aggregate view.
type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetOverview returns aggregate statistics and the latest result per student.
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard overview")

	overview, err := h.service.GetOverview(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
