package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// DashboardHandler serves the per-role landing page aggregates.
type DashboardHandler struct {
	dashboards *service.DashboardService
	analytics  *service.AnalyticsService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboards *service.DashboardService, analytics *service.AnalyticsService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, analytics: analytics}
}

// Dashboard returns the aggregate matching the caller's role.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	switch claims.Role {
	case models.RoleTeacher:
		dashboard, err := h.dashboards.TeacherDashboard(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	case models.RoleStudent:
		dashboard, err := h.dashboards.StudentDashboard(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	case models.RoleAdmin:
		stats, comparisons, err := h.analytics.SystemOverview(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{
			"system":              stats,
			"subject_comparisons": comparisons,
		}, nil)
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}
