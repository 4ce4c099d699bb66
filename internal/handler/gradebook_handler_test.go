package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
)

type fakeGradebookRepo struct {
	assignments  []models.Assignment
	created      []*models.Assignment
	updatedID    string
	updatedScore *float64
	updateCalls  int
}

func (f *fakeGradebookRepo) GradebookCells(ctx context.Context, subjectID string) ([]models.GradebookCellRow, error) {
	return nil, nil
}

func (f *fakeGradebookRepo) AssignmentNames(ctx context.Context, subjectID string) ([]string, error) {
	return nil, nil
}

func (f *fakeGradebookRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	return f.assignments, nil
}

func (f *fakeGradebookRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	f.created = append(f.created, assignment)
	return nil
}

func (f *fakeGradebookRepo) UpdateScore(ctx context.Context, id string, score *float64) error {
	f.updateCalls++
	f.updatedID = id
	f.updatedScore = score
	return nil
}

func newGradebookHandler(repo *fakeGradebookRepo) *GradebookHandler {
	gradebook := service.NewGradebookService(repo, nil, nil, zap.NewNop())
	return NewGradebookHandler(gradebook, nil, nil)
}

func setCellContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/subjects/sub-1/gradebook", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	return c, rec
}

func TestGradebookHandlerSetCellCreates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradebookRepo{}
	handler := newGradebookHandler(repo)

	c, rec := setCellContext(t, `{"student_id":"stu-1","assignment_name":"Quiz 1","score":"88.5"}`)
	handler.SetCell(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].Score)
	assert.Equal(t, 88.5, *repo.created[0].Score)
}

func TestGradebookHandlerSetCellBlankClears(t *testing.T) {
	gin.SetMode(gin.TestMode)
	score := 70.0
	repo := &fakeGradebookRepo{assignments: []models.Assignment{
		{ID: "asg-1", SubjectID: "sub-1", Name: "Quiz 1", Score: &score},
	}}
	handler := newGradebookHandler(repo)

	c, rec := setCellContext(t, `{"student_id":"stu-1","assignment_name":"Quiz 1","score":"  "}`)
	handler.SetCell(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, "asg-1", repo.updatedID)
	assert.Nil(t, repo.updatedScore)
}

func TestGradebookHandlerSetCellRejectsNonNumericScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradebookRepo{}
	handler := newGradebookHandler(repo)

	c, rec := setCellContext(t, `{"student_id":"stu-1","assignment_name":"Quiz 1","score":"ninety"}`)
	handler.SetCell(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.created)
	assert.Zero(t, repo.updateCalls)
}

func TestGradebookHandlerSetCellRejectsOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeGradebookRepo{}
	handler := newGradebookHandler(repo)

	c, rec := setCellContext(t, `{"student_id":"stu-1","assignment_name":"Quiz 1","score":"150"}`)
	handler.SetCell(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.created)
}

func TestGradebookHandlerSetCellRequiresStudentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradebookHandler(&fakeGradebookRepo{})

	c, rec := setCellContext(t, `{"assignment_name":"Quiz 1","score":"90"}`)
	handler.SetCell(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
