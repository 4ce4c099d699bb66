package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	"github.com/hallpass/school-portal-api/internal/service"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret string) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:   "stu-1",
		Username: "alice",
		Role:     models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "school-portal-api",
			Subject:   "stu-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func optionalJWTClaims(t *testing.T, target string, header string) (*models.JWTClaims, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, nil, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "school-portal-api",
	})

	var captured *models.JWTClaims
	r := gin.New()
	r.GET("/stream", OptionalJWT(auth), func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			captured = value.(*models.JWTClaims)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return captured, rec.Code
}

func TestOptionalJWTQueryToken(t *testing.T) {
	token := signTestToken(t, testSecret)

	claims, code := optionalJWTClaims(t, "/stream?token="+token, "")
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, claims)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestOptionalJWTBearerHeader(t *testing.T) {
	token := signTestToken(t, testSecret)

	claims, code := optionalJWTClaims(t, "/stream", "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, claims)
	assert.Equal(t, "alice", claims.Username)
}

func TestOptionalJWTMissingToken(t *testing.T) {
	claims, code := optionalJWTClaims(t, "/stream", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, claims)
}

func TestOptionalJWTInvalidTokenPassesWithoutClaims(t *testing.T) {
	forged := signTestToken(t, "other-secret")

	claims, code := optionalJWTClaims(t, "/stream?token="+forged, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, claims)
}
