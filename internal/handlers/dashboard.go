package handlers

import (
	"context"

	"sitepay/internal/services/dashboard"
	"sitepay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DashboardService interface {
	BusinessDashboard(ctx context.Context, businessID string) (*dashboard.Dashboard, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
}

func NewDashboardHandler(dashboardService DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetBusinessDashboard returns revenue, analytics and recent transactions
// for the :id business.
func (h *DashboardHandler) GetBusinessDashboard(c *fiber.Ctx) error {
	d, err := h.dashboardService.BusinessDashboard(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Dashboard data retrieved successfully", d)
}
