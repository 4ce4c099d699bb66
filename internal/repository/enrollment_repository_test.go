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

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreateIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, subject_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	enrollment := &models.Enrollment{StudentID: "stu-1", SubjectID: "sub-1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND subject_id = $2")).
		WithArgs("stu-1", "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "stu-1", "sub-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "student_name", "subject_name", "created_at"}).
		AddRow("enr-1", "stu-1", "sub-1", "alice", "Math", time.Now()).
		AddRow("enr-2", "stu-2", "sub-1", "bob", "Math", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.subject_id = $1 AND u.role = 'STUDENT'")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "alice", enrollments[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND subject_id = $2")).
		WithArgs("stu-1", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrolled, err := repo.Exists(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	require.True(t, enrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}
