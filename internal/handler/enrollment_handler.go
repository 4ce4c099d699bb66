package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// EnrollmentHandler handles enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

type enrollRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	SubjectID string `json:"subject_id" binding:"required"`
}

// Enroll adds a student to a subject. Enrolling twice is a no-op.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.service.Enroll(c.Request.Context(), req.StudentID, req.SubjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"enrolled": true}, nil)
}

// Unenroll removes a student from a subject.
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.service.Unenroll(c.Request.Context(), req.StudentID, req.SubjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster lists students enrolled in a subject.
func (h *EnrollmentHandler) Roster(c *gin.Context) {
	enrollments, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// MySubjects lists the authenticated student's enrollments.
func (h *EnrollmentHandler) MySubjects(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollments, err := h.service.SubjectsFor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
