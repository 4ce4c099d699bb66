package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// GradebookHandler serves the score matrix and the grade write endpoint.
type GradebookHandler struct {
	gradebook     *service.GradebookService
	subjects      *service.SubjectService
	notifications *service.NotificationService
}

// NewGradebookHandler constructs a gradebook handler.
func NewGradebookHandler(gradebook *service.GradebookService, subjects *service.SubjectService, notifications *service.NotificationService) *GradebookHandler {
	return &GradebookHandler{gradebook: gradebook, subjects: subjects, notifications: notifications}
}

// setCellRequest carries the score as text so blank means "clear the cell".
type setCellRequest struct {
	StudentID      string  `json:"student_id" binding:"required"`
	AssignmentName string  `json:"assignment_name" binding:"required"`
	Score          *string `json:"score"`
}

// Matrix godoc
// @Summary Gradebook matrix for a subject
// @Tags Gradebook
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Router /api/v1/subjects/{id}/gradebook [get]
func (h *GradebookHandler) Matrix(c *gin.Context) {
	start := time.Now()
	matrix, cacheHit, err := h.gradebook.Matrix(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, matrix, nil, meta)
}

// SetCell writes one grade. A blank or missing score deletes the stored
// grade record; non-numeric text is rejected.
func (h *GradebookHandler) SetCell(c *gin.Context) {
	var req setCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	var score *float64
	if req.Score != nil {
		trimmed := strings.TrimSpace(*req.Score)
		if trimmed != "" {
			parsed, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				response.Error(c, appErrors.ErrInvalidGrade)
				return
			}
			score = &parsed
		}
	}

	subjectID := c.Param("id")
	if err := h.gradebook.SetCell(c.Request.Context(), subjectID, req.StudentID, req.AssignmentName, score); err != nil {
		response.Error(c, err)
		return
	}

	if score != nil && h.notifications != nil {
		if subject, err := h.subjects.Get(c.Request.Context(), subjectID); err == nil {
			h.notifications.NotifyGrade(c.Request.Context(), req.StudentID, subject.Name, req.AssignmentName, *score)
		}
	}

	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}
