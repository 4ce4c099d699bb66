package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// AnalyticsHandler exposes the prediction, class statistics and attendance
// pattern endpoints. Parent access is scoped to linked children.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	links     parentLinkChecker
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, links parentLinkChecker) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, links: links}
}

// Prediction godoc
// @Summary Performance forecast for one student
// @Tags Analytics
// @Produce json
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /api/v1/analytics/students/{id}/prediction [get]
func (h *AnalyticsHandler) Prediction(c *gin.Context) {
	studentID := c.Param("id")
	if !studentScopeAllowed(c, h.links, studentID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	start := time.Now()
	prediction, cacheHit, err := h.analytics.PredictPerformance(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prediction, nil, analyticsMeta(cacheHit, start))
}

// ClassPerformance godoc
// @Summary Class statistics for one subject
// @Tags Analytics
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Router /api/v1/analytics/subjects/{id}/performance [get]
func (h *AnalyticsHandler) ClassPerformance(c *gin.Context) {
	start := time.Now()
	analysis, cacheHit, err := h.analytics.ClassPerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil, analyticsMeta(cacheHit, start))
}

// AttendancePatterns godoc
// @Summary Attendance patterns by student and/or subject
// @Tags Analytics
// @Produce json
// @Param student_id query string false "Student id"
// @Param subject_id query string false "Subject id"
// @Success 200 {object} response.Envelope
// @Router /api/v1/analytics/attendance [get]
func (h *AnalyticsHandler) AttendancePatterns(c *gin.Context) {
	filter := models.AttendanceAnalyticsFilter{
		StudentID: c.Query("student_id"),
		SubjectID: c.Query("subject_id"),
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}
	if claims != nil && claims.Role == models.RoleParent {
		if filter.StudentID == "" || !studentScopeAllowed(c, h.links, filter.StudentID) {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	}

	start := time.Now()
	analysis, cacheHit, err := h.analytics.AttendancePatterns(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil, analyticsMeta(cacheHit, start))
}

// System returns the admin-wide counters and subject ranking.
func (h *AnalyticsHandler) System(c *gin.Context) {
	stats, comparisons, err := h.analytics.SystemOverview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"system":              stats,
		"subject_comparisons": comparisons,
	}, nil)
}

func analyticsMeta(cacheHit bool, start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
}
