package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/realtime"
	"github.com/hallpass/school-portal-api/internal/service"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/response"
)

type enrollmentLister interface {
	SubjectsFor(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

// NotificationHandler serves stored notifications and the live event stream.
type NotificationHandler struct {
	service     *service.NotificationService
	hub         *realtime.Hub
	enrollments enrollmentLister
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(svc *service.NotificationService, hub *realtime.Hub, enrollments enrollmentLister) *NotificationHandler {
	return &NotificationHandler{service: svc, hub: hub, enrollments: enrollments}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notifications, err := h.service.ListForUser(c.Request.Context(), claims.UserID, c.Query("unread") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead marks every unread notification for the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkAllRead(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stream holds the connection open and forwards hub events as server-sent
// events until the client disconnects or the hub shuts down.
func (h *NotificationHandler) Stream(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "realtime disabled"))
		return
	}

	sub := h.hub.Subscribe(claims.UserID)
	if sub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "realtime shutting down"))
		return
	}
	defer sub.Cancel()

	// Students follow their subjects' rooms for the duration of the stream,
	// so subject-wide events like new assignments reach them live.
	if claims.Role == models.RoleStudent && h.enrollments != nil {
		if enrollments, err := h.enrollments.SubjectsFor(c.Request.Context(), claims.UserID); err == nil {
			for _, enrollment := range enrollments {
				room := realtime.SubjectRoom(enrollment.SubjectID)
				h.hub.JoinRoom(room, claims.UserID)
				defer h.hub.LeaveRoom(room, claims.UserID)
			}
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
