package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/realtime"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[string]*models.Assignment
	created     []*models.Assignment
	deleted     []string
}

func (m *mockAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		out = append(out, *assignment)
	}
	return out, nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return assignment, nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if m.assignments == nil {
		m.assignments = make(map[string]*models.Assignment)
	}
	m.assignments[assignment.ID] = assignment
	m.created = append(m.created, assignment)
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.assignments, id)
	return nil
}

func TestAssignmentServiceCreateTemplate(t *testing.T) {
	repo := &mockAssignmentRepo{}
	svc := NewAssignmentService(repo, nil, nil, zap.NewNop())

	assignment, err := svc.CreateTemplate(context.Background(), CreateAssignmentRequest{SubjectID: "sub-1", Name: "Quiz 3"})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.Nil(t, assignment.StudentID)
	require.Len(t, repo.created, 1)
}

func TestAssignmentServiceCreateTemplateValidation(t *testing.T) {
	repo := &mockAssignmentRepo{}
	svc := NewAssignmentService(repo, nil, nil, zap.NewNop())

	_, err := svc.CreateTemplate(context.Background(), CreateAssignmentRequest{SubjectID: "sub-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAssignmentServiceCreateTemplateAnnouncesToSubjectRoom(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	defer hub.Close()

	enrolled := hub.Subscribe("stu-1")
	hub.JoinRoom(realtime.SubjectRoom("sub-1"), "stu-1")
	unenrolled := hub.Subscribe("stu-2")

	notifications := NewNotificationService(&mockNotificationRepo{}, hub, zap.NewNop())
	svc := NewAssignmentService(&mockAssignmentRepo{}, notifications, nil, zap.NewNop())

	assignment, err := svc.CreateTemplate(context.Background(), CreateAssignmentRequest{SubjectID: "sub-1", Name: "Quiz 3"})
	require.NoError(t, err)

	event := <-enrolled.Events
	assert.Equal(t, "assignment", event.Type)
	published, ok := event.Payload.(*models.Assignment)
	require.True(t, ok)
	assert.Equal(t, assignment.ID, published.ID)
	assert.Empty(t, unenrolled.Events)
}

func TestAssignmentServiceDeleteMissing(t *testing.T) {
	repo := &mockAssignmentRepo{}
	svc := NewAssignmentService(repo, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}
