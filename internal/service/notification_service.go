package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/realtime"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationService persists per-user notifications and fans them out to
// live subscribers through the hub. A nil hub disables fanout; persistence
// still happens.
type NotificationService struct {
	repo   notificationRepository
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationRepository, hub *realtime.Hub, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, hub: hub, logger: logger}
}

// Notify stores a notification and pushes it to the user's live connections.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string, kind models.NotificationType) (*models.Notification, error) {
	notification := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notification")
	}
	if s.hub != nil {
		s.hub.PublishToUser(userID, realtime.Event{Type: string(kind), Payload: notification})
	}
	return notification, nil
}

// NotifyAssignmentCreated announces a new assignment to every subscriber in
// the subject's room. Room events are live only; nothing is persisted per
// user because the recipient set is whoever is connected.
func (s *NotificationService) NotifyAssignmentCreated(subjectID string, assignment *models.Assignment) {
	if s.hub == nil {
		return
	}
	s.hub.PublishToRoom(realtime.SubjectRoom(subjectID), realtime.Event{
		Type:    string(models.NotificationAssignment),
		Payload: assignment,
	})
}

// NotifyGrade tells a student a grade was posted for an assignment.
func (s *NotificationService) NotifyGrade(ctx context.Context, studentID, subjectName, assignmentName string, score float64) {
	message := fmt.Sprintf("You received %.1f on %s in %s.", score, assignmentName, subjectName)
	if _, err := s.Notify(ctx, studentID, "New grade posted", message, models.NotificationGrade); err != nil {
		s.logger.Warn("grade notification failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// NotifyAttendance tells a student they were marked absent.
func (s *NotificationService) NotifyAttendance(ctx context.Context, studentID, subjectName, date string) {
	message := fmt.Sprintf("You were marked absent in %s on %s.", subjectName, date)
	if _, err := s.Notify(ctx, studentID, "Attendance recorded", message, models.NotificationAttendance); err != nil {
		s.logger.Warn("attendance notification failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification")
	}
	return nil
}

// MarkAllRead marks every unread notification for the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications")
	}
	return nil
}
