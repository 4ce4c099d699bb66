package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/middleware"
	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
)

type fakeAnalyticsRepo struct {
	studentScores []models.StudentScoreRow
	subjectScores []models.SubjectScoreRow
	enrolled      int
	lastFilter    models.AttendanceAnalyticsFilter
}

func (f *fakeAnalyticsRepo) StudentScores(ctx context.Context, studentID string) ([]models.StudentScoreRow, error) {
	return f.studentScores, nil
}

func (f *fakeAnalyticsRepo) SubjectScores(ctx context.Context, subjectID string) ([]models.SubjectScoreRow, error) {
	return f.subjectScores, nil
}

func (f *fakeAnalyticsRepo) EnrolledStudentCount(ctx context.Context, subjectID string) (int, error) {
	return f.enrolled, nil
}

func (f *fakeAnalyticsRepo) AttendanceRows(ctx context.Context, filter models.AttendanceAnalyticsFilter) ([]models.AttendanceRow, error) {
	f.lastFilter = filter
	return nil, nil
}

func (f *fakeAnalyticsRepo) SystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error) {
	return &models.SystemAnalytics{TotalStudents: 10}, nil
}

func (f *fakeAnalyticsRepo) SubjectComparisons(ctx context.Context) ([]models.SubjectComparison, error) {
	return nil, nil
}

type fakeParentLinks struct {
	children map[string]bool
}

func (f *fakeParentLinks) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	return f.children[parentID+"/"+studentID], nil
}

func newAnalyticsHandler(repo *fakeAnalyticsRepo, links parentLinkChecker) *AnalyticsHandler {
	svc := service.NewAnalyticsService(repo, nil, nil, zap.NewNop())
	return NewAnalyticsHandler(svc, links)
}

type envelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestAnalyticsHandlerPrediction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{studentScores: []models.StudentScoreRow{
		{Score: 70, SubjectName: "Math", Position: 1},
		{Score: 75, SubjectName: "Math", Position: 2},
		{Score: 80, SubjectName: "Math", Position: 3},
	}}
	handler := newAnalyticsHandler(repo, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/students/stu-1/prediction", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tch-1", Role: models.RoleTeacher})

	handler.Prediction(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 85.0, body.Data["predicted_grade"])
	assert.Equal(t, "improving", body.Data["trend"])
	assert.Equal(t, false, body.Meta["cache_hit"])
}

func TestAnalyticsHandlerPredictionStudentSelfOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnalyticsHandler(&fakeAnalyticsRepo{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/students/stu-2/prediction", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Prediction(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyticsHandlerPredictionParentLinkedChild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{studentScores: []models.StudentScoreRow{
		{Score: 70, SubjectName: "Math", Position: 1},
		{Score: 75, SubjectName: "Math", Position: 2},
		{Score: 80, SubjectName: "Math", Position: 3},
	}}
	links := &fakeParentLinks{children: map[string]bool{"par-1/stu-1": true}}
	handler := newAnalyticsHandler(repo, links)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/students/stu-1/prediction", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent})

	handler.Prediction(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyticsHandlerPredictionParentUnlinkedChild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	links := &fakeParentLinks{children: map[string]bool{"par-1/stu-1": true}}
	handler := newAnalyticsHandler(&fakeAnalyticsRepo{}, links)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/students/stu-9/prediction", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-9"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent})

	handler.Prediction(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyticsHandlerAttendanceParentNeedsLinkedStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{}
	links := &fakeParentLinks{children: map[string]bool{"par-1/stu-1": true}}
	handler := newAnalyticsHandler(repo, links)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance?student_id=stu-2", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent})

	handler.AttendancePatterns(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance?student_id=stu-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "par-1", Role: models.RoleParent})

	handler.AttendancePatterns(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", repo.lastFilter.StudentID)
}

func TestAnalyticsHandlerAttendanceForcesStudentScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{}
	handler := newAnalyticsHandler(repo, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance?student_id=stu-2", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.AttendancePatterns(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", repo.lastFilter.StudentID)
}

func TestAnalyticsHandlerClassPerformanceNoData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnalyticsHandler(&fakeAnalyticsRepo{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/subjects/sub-1/performance", nil)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.ClassPerformance(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body.Data["no_data"])
}
