package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type mockUserRepo struct {
	users    map[string]*models.User
	total    int
	updated  []*models.User
	deleted  []string
	links    []*models.ParentLink
	children []models.User
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, m.total, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) CreateParentLink(ctx context.Context, link *models.ParentLink) error {
	m.links = append(m.links, link)
	return nil
}

func (m *mockUserRepo) ListChildren(ctx context.Context, parentID string) ([]models.User, error) {
	return m.children, nil
}

func (m *mockUserRepo) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	for _, link := range m.links {
		if link.ParentID == parentID && link.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func userFixture(id, username string, role models.UserRole) *models.User {
	return &models.User{ID: id, Username: username, FullName: username, Role: role, Active: true}
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"usr-1": userFixture("usr-1", "alice", models.RoleTeacher)}, total: 1}
	svc := NewUserService(repo, nil, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateRejectsDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"usr-1": userFixture("usr-1", "alice", models.RoleTeacher)}}
	svc := NewUserService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "alice",
		Password: "longenough",
		FullName: "Alice Again",
		Role:     "TEACHER",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "bob",
		Password: "longenough",
		FullName: "Bob B",
		Role:     "STUDENT",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "longenough", user.PasswordHash)
	assert.True(t, user.Active)
}

func TestUserServiceUpdatePatchesProvidedFields(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"usr-1": userFixture("usr-1", "alice", models.RoleTeacher)}}
	svc := NewUserService(repo, nil, zap.NewNop())

	name := "Alice Updated"
	active := false
	user, err := svc.Update(context.Background(), "usr-1", UpdateUserRequest{FullName: &name, Active: &active})
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", user.FullName)
	assert.False(t, user.Active)
	// Untouched fields keep their values.
	assert.Equal(t, "alice", user.Username)
	require.Len(t, repo.updated, 1)
}

func TestUserServiceDeleteMissingUser(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceLinkParentChecksRoles(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"par-1": userFixture("par-1", "parent", models.RoleParent),
		"stu-1": userFixture("stu-1", "student", models.RoleStudent),
		"tch-1": userFixture("tch-1", "teacher", models.RoleTeacher),
	}}
	svc := NewUserService(repo, nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.LinkParent(ctx, "par-1", "stu-1"))
	require.Len(t, repo.links, 1)
	assert.Equal(t, "par-1", repo.links[0].ParentID)

	err := svc.LinkParent(ctx, "tch-1", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.LinkParent(ctx, "par-1", "tch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceIsParentOf(t *testing.T) {
	repo := &mockUserRepo{links: []*models.ParentLink{{ParentID: "par-1", StudentID: "stu-1"}}}
	svc := NewUserService(repo, nil, zap.NewNop())
	ctx := context.Background()

	linked, err := svc.IsParentOf(ctx, "par-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = svc.IsParentOf(ctx, "par-1", "stu-2")
	require.NoError(t, err)
	assert.False(t, linked)
}
