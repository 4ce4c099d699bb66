package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hallpass/school-portal-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	score := 87.5
	studentID := "stu-1"
	rows := sqlmock.NewRows([]string{"id", "subject_id", "student_id", "name", "score", "position", "created_at"}).
		AddRow("asg-1", "sub-1", studentID, "Quiz 1", score, int64(1), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, student_id, name, score, position, created_at FROM assignments WHERE 1=1 AND subject_id = $1 AND student_id = $2 ORDER BY position")).
		WithArgs("sub-1", "stu-1").
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{SubjectID: "sub-1", StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "Quiz 1", assignments[0].Name)
	require.NotNil(t, assignments[0].Score)
	require.Equal(t, 87.5, *assignments[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListTemplatesOnly(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "student_id", "name", "score", "position", "created_at"}).
		AddRow("asg-1", "sub-1", nil, "Quiz 1", nil, int64(1), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND student_id IS NULL ORDER BY position")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{SubjectID: "sub-1", TemplatesOnly: true})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.True(t, assignments[0].IsTemplate())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateAssignsIDAndPosition(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	score := 91.0
	studentID := "stu-1"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignments (id, subject_id, student_id, name, score)")).
		WithArgs(sqlmock.AnyArg(), "sub-1", "stu-1", "Quiz 1", 91.0).
		WillReturnRows(sqlmock.NewRows([]string{"position", "created_at"}).AddRow(int64(7), time.Now()))

	assignment := &models.Assignment{SubjectID: "sub-1", StudentID: &studentID, Name: "Quiz 1", Score: &score}
	err := repo.Create(context.Background(), assignment)
	require.NoError(t, err)
	require.NotEmpty(t, assignment.ID)
	require.Equal(t, int64(7), assignment.Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateScore(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET score = $1 WHERE id = $2")).
		WithArgs(95.0, "asg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := 95.0
	require.NoError(t, repo.UpdateScore(context.Background(), "asg-1", &score))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateScoreNilDeletesRow(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs("asg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateScore(context.Background(), "asg-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryAssignmentNames(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"name"}).AddRow("Quiz 1").AddRow("Midterm")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM assignments WHERE subject_id = $1 GROUP BY name ORDER BY MIN(position)")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	names, err := repo.AssignmentNames(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Quiz 1", "Midterm"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryGradebookCellsIncludesUngraded(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	name := "Quiz 1"
	score := 72.0
	rows := sqlmock.NewRows([]string{"student_id", "username", "full_name", "assignment_id", "assignment_name", "score"}).
		AddRow("stu-1", "alice", "Alice A", "asg-1", name, score).
		AddRow("stu-2", "bob", "Bob B", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN assignments a ON a.subject_id = e.subject_id AND a.student_id = u.id")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	cells, err := repo.GradebookCells(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Nil(t, cells[1].AssignmentName)
	require.Nil(t, cells[1].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}
