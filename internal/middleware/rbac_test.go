package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

func performRBAC(claims *models.JWTClaims, roles ...models.UserRole) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
		})
	}
	r.GET("/protected", RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return rec
}

func TestRequireRolesAllows(t *testing.T) {
	rec := performRBAC(&models.JWTClaims{UserID: "w-1", Role: models.RoleWarden}, models.RoleWarden)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesForbidsWrongRole(t *testing.T) {
	rec := performRBAC(&models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}, models.RoleWarden)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesAllowsAnyListedRole(t *testing.T) {
	rec := performRBAC(&models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}, models.RoleStudent, models.RoleWarden)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesRejectsAnonymous(t *testing.T) {
	rec := performRBAC(nil, models.RoleWarden)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
