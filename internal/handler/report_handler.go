package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

// ReportHandler handles asynchronous class report exports.
type ReportHandler struct {
	service *service.ExportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

type requestReportBody struct {
	SubjectID string `json:"subject_id" binding:"required"`
	Format    string `json:"format" binding:"required,oneof=csv pdf"`
}

// Request schedules generation of a class report and returns the job record.
func (h *ReportHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var body requestReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	job, err := h.service.Request(c.Request.Context(), body.SubjectID, claims.UserID, models.ReportFormat(body.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status returns the stored job record.
func (h *ReportHandler) Status(c *gin.Context) {
	job, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download streams the rendered file for a completed job.
func (h *ReportHandler) Download(c *gin.Context) {
	path, err := h.service.FilePath(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, "class-report"+fileExtension(path))
}

func fileExtension(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
