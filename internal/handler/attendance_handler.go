package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// AttendanceHandler handles attendance endpoints. Parent access is scoped to
// linked children.
type AttendanceHandler struct {
	service       *service.AttendanceService
	subjects      *service.SubjectService
	notifications *service.NotificationService
	links         parentLinkChecker
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService, subjects *service.SubjectService, notifications *service.NotificationService, links parentLinkChecker) *AttendanceHandler {
	return &AttendanceHandler{service: svc, subjects: subjects, notifications: notifications, links: links}
}

// Mark records attendance for a subject session, replacing any records
// already stored for that date.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.service.Mark(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	if h.notifications != nil {
		if subject, err := h.subjects.Get(c.Request.Context(), req.SubjectID); err == nil {
			for _, entry := range req.Entries {
				if !entry.Present {
					h.notifications.NotifyAttendance(c.Request.Context(), entry.StudentID, subject.Name, req.Date)
				}
			}
		}
	}

	response.JSON(c, http.StatusCreated, gin.H{"marked": len(req.Entries)}, nil)
}

// ForDate lists the records for one subject session.
func (h *AttendanceHandler) ForDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	records, err := h.service.ForDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// StudentSummary aggregates a student's attendance per subject. Students can
// only read their own; parents only their linked children.
func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	studentID := c.Param("id")
	if !studentScopeAllowed(c, h.links, studentID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	summaries, err := h.service.StudentSummary(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}
