package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// AssignmentHandler handles assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List returns assignments filtered by subject, student or template flag.
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{
		SubjectID:     c.Query("subject_id"),
		StudentID:     c.Query("student_id"),
		TemplatesOnly: c.Query("templates") == "true",
	}
	assignments, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Get returns one assignment.
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Create registers a subject-wide assignment template.
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	assignment, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete removes an assignment row.
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
