package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"userportal/api/internal/models"
)

func performWithUser(t *testing.T, user *models.User, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/probe", func(c *gin.Context) {
		if user != nil {
			c.Set(ContextUser, *user)
		}
		c.Next()
	}, handler, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoles(t *testing.T) {
	admin := models.User{ID: "1", Role: models.RoleAdmin}
	user := models.User{ID: "2", Role: models.RoleUser}

	rec := performWithUser(t, &admin, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performWithUser(t, &user, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = performWithUser(t, &user, RequireRoles(models.RoleAdmin, models.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performWithUser(t, nil, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// permissions are a separate axis: role never grants them and they never
// grant a role
func TestRequirePermission(t *testing.T) {
	reader := models.User{ID: "1", Role: models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead}}
	flagHolder := models.User{ID: "2", Role: models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead, models.PermissionFlagAccess}}
	bareAdmin := models.User{ID: "3", Role: models.RoleAdmin}

	rec := performWithUser(t, &reader, RequirePermission(models.PermissionFlagAccess))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = performWithUser(t, &flagHolder, RequirePermission(models.PermissionFlagAccess))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performWithUser(t, &bareAdmin, RequirePermission(models.PermissionFlagAccess))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = performWithUser(t, nil, RequirePermission(models.PermissionRead))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
