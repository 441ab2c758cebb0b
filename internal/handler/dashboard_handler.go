package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Open and today's occurrences, the latest five and the ten most frequent types.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardStats
// @Failure 500 {object} errors.Error
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats)
}
