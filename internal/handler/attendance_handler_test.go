package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/middleware"
	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
)

type fakeAttendanceRepo struct {
	summaries []models.AttendanceSummary
}

func (f *fakeAttendanceRepo) ReplaceForDate(ctx context.Context, subjectID string, date time.Time, entries []models.MarkAttendanceEntry) error {
	return nil
}

func (f *fakeAttendanceRepo) ListForDate(ctx context.Context, subjectID string, date time.Time) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) StudentSummary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	return f.summaries, nil
}

func (f *fakeAttendanceRepo) StudentTotals(ctx context.Context, studentID string) (int, int, error) {
	return 0, 0, nil
}

func newAttendanceHandler(links parentLinkChecker) *AttendanceHandler {
	svc := service.NewAttendanceService(&fakeAttendanceRepo{}, nil, nil, zap.NewNop())
	return NewAttendanceHandler(svc, nil, nil, links)
}

func summaryRequest(handler *AttendanceHandler, claims *models.JWTClaims, studentID string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/students/"+studentID, nil)
	c.Params = gin.Params{{Key: "id", Value: studentID}}
	c.Set(middleware.ContextUserKey, claims)
	handler.StudentSummary(c)
	return rec
}

func TestAttendanceHandlerSummaryStudentSelfOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(nil)

	rec := summaryRequest(handler, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, "stu-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = summaryRequest(handler, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, "stu-2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandlerSummaryParentScopedToLinkedChildren(t *testing.T) {
	gin.SetMode(gin.TestMode)
	links := &fakeParentLinks{children: map[string]bool{"par-1/stu-1": true}}
	handler := newAttendanceHandler(links)

	rec := summaryRequest(handler, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent}, "stu-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = summaryRequest(handler, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent}, "stu-2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandlerSummaryTeacherUnrestricted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(nil)

	rec := summaryRequest(handler, &models.JWTClaims{UserID: "tch-1", Role: models.RoleTeacher}, "stu-2")
	assert.Equal(t, http.StatusOK, rec.Code)
}
