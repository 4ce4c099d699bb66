package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hallpass/school-portal-api/internal/middleware"
	"github.com/hallpass/school-portal-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

type parentLinkChecker interface {
	IsParentOf(ctx context.Context, parentID, studentID string) (bool, error)
}

// studentScopeAllowed reports whether the caller may read records belonging
// to studentID. Students read only their own, parents only linked children;
// every other role passes.
func studentScopeAllowed(c *gin.Context, links parentLinkChecker, studentID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		return true
	}
	switch claims.Role {
	case models.RoleStudent:
		return claims.UserID == studentID
	case models.RoleParent:
		if links == nil {
			return false
		}
		linked, err := links.IsParentOf(c.Request.Context(), claims.UserID, studentID)
		return err == nil && linked
	default:
		return true
	}
}
