package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hallpass/school-portal-api/internal/models"
)

func rbacRequest(t *testing.T, claims *models.JWTClaims, paramID string, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RBAC(allowed...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return rec
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	rec := rbacRequest(t, &models.JWTClaims{UserID: "usr-1", Role: models.RoleAdmin}, "", "ADMIN", "TEACHER")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	rec := rbacRequest(t, &models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent}, "", "ADMIN", "TEACHER")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	rec := rbacRequest(t, nil, "", "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACSelfMatchesOwnID(t *testing.T) {
	claims := &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}

	rec := rbacRequest(t, claims, "stu-1", "ADMIN", "SELF")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = rbacRequest(t, claims, "stu-2", "ADMIN", "SELF")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
