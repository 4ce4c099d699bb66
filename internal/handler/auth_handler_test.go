package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
)

type fakeAuthUserRepo struct {
	users   map[string]*models.User
	created []*models.User
}

func (f *fakeAuthUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	f.users[user.ID] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	if f.tokens == nil {
		f.tokens = make(map[string]*models.RefreshToken)
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (f *fakeTokenRepo) RevokeForUser(ctx context.Context, userID string) error {
	return nil
}

func newAuthHandlerFixture(users *fakeAuthUserRepo) *AuthHandler {
	auth := service.NewAuthService(users, &fakeTokenRepo{}, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "school-portal-api",
	})
	return NewAuthHandler(auth, nil)
}

func TestAuthHandlerSignupIgnoresRequestedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &fakeAuthUserRepo{}
	handler := newAuthHandlerFixture(users)

	body := `{"username":"mallory","password":"longenough","full_name":"Mallory M","role":"ADMIN"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Signup(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleStudent, users.created[0].Role)
}
