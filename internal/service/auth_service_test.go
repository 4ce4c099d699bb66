package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users          map[string]*models.User
	created        []*models.User
	lastLoginCalls int
}

func (m *mockAuthUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginCalls++
	return nil
}

type mockTokenRepo struct {
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.RefreshToken)
	}
	m.tokens[token.Token] = token
	return nil
}

func (m *mockTokenRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockTokenRepo) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, stored := range m.tokens {
		if stored.ID == id {
			stored.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockTokenRepo) RevokeForUser(ctx context.Context, userID string) error {
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "school-portal-api",
	}
}

func seedUser(t *testing.T, password string) (*mockAuthUserRepo, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "usr-1",
		Username:     "alice",
		PasswordHash: string(hash),
		FullName:     "Alice A",
		Role:         models.RoleTeacher,
		Active:       true,
	}
	return &mockAuthUserRepo{users: map[string]*models.User{user.ID: user}}, user
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	tokens := &mockTokenRepo{}
	svc := NewAuthService(users, tokens, nil, zap.NewNop(), testAuthConfig())

	response, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Equal(t, user.ID, response.User.ID)
	assert.Equal(t, 1, users.lastLoginCalls)
	assert.Len(t, tokens.tokens, 1)

	claims, err := svc.ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	users, _ := seedUser(t, "correct horse")
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&mockAuthUserRepo{}, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	user.Active = false
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSignupHashesPassword(t *testing.T) {
	users := &mockAuthUserRepo{}
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	response, err := svc.Signup(context.Background(), models.SignupRequest{
		Username: "bob",
		Password: "longenough",
		FullName: "Bob B",
	})
	require.NoError(t, err)
	require.Len(t, users.created, 1)
	created := users.created[0]
	assert.NotEqual(t, "longenough", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("longenough")))
	assert.True(t, created.Active)
	assert.Equal(t, models.RoleStudent, created.Role)
	assert.NotEmpty(t, response.AccessToken)
}

func TestAuthServiceSignupDuplicateUsername(t *testing.T) {
	users, _ := seedUser(t, "correct horse")
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Username: "alice",
		Password: "longenough",
		FullName: "Alice Again",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSignupAlwaysCreatesStudent(t *testing.T) {
	users := &mockAuthUserRepo{}
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Username: "carol",
		Password: "longenough",
		FullName: "Carol C",
	})
	require.NoError(t, err)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleStudent, users.created[0].Role)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	tokens := &mockTokenRepo{}
	svc := NewAuthService(users, tokens, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: user.Username, Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, tokens.revoked, 1)

	// The rotated-out token no longer refreshes.
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	expired := &models.RefreshToken{
		ID:        "tok-1",
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	tokens := &mockTokenRepo{tokens: map[string]*models.RefreshToken{expired.Token: expired}}
	svc := NewAuthService(users, tokens, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: "expired-token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutChecksOwnership(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	tokens := &mockTokenRepo{}
	svc := NewAuthService(users, tokens, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: user.Username, Password: "correct horse"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), "someone-else", login.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), user.ID, login.RefreshToken))
	assert.Len(t, tokens.revoked, 1)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	users, user := seedUser(t, "correct horse")
	svc := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: user.Username, Password: "correct horse"})
	require.NoError(t, err)

	other := NewAuthService(users, &mockTokenRepo{}, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: 15 * time.Minute,
	})
	_, err = other.ValidateToken(login.AccessToken)
	assert.Error(t, err)
}
