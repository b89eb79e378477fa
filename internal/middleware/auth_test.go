package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/config"
	"userportal/api/internal/models"
	"userportal/api/internal/security"
	"userportal/api/internal/store"
)

const authTestSecret = "middleware_test_secret"

func authTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{JWTSecret: authTestSecret, TokenTTL: time.Hour},
	}
}

func seedAuthUser(t *testing.T, users store.UserStore) models.User {
	t.Helper()
	user, err := users.Insert(context.Background(), models.User{
		ID:          "u1",
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead},
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return user
}

func authRouter(cfg *config.AppConfig, users store.UserStore, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{Auth(cfg, users)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	router.GET("/probe", chain...)
	return router
}

func doGet(router *gin.Engine, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthAcceptsValidToken(t *testing.T) {
	users := store.NewMemoryUsers()
	user := seedAuthUser(t, users)
	router := authRouter(authTestConfig(), users)

	token, err := security.IssueSessionToken(authTestSecret, user.ID, user.Username, time.Hour)
	require.NoError(t, err)

	rec := doGet(router, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jdoe")
}

func TestAuthRejections(t *testing.T) {
	users := store.NewMemoryUsers()
	user := seedAuthUser(t, users)
	router := authRouter(authTestConfig(), users)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(router, "").Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(router, "garbage").Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := security.IssueSessionToken(authTestSecret, user.ID, user.Username, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, doGet(router, token).Code)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := security.IssueSessionToken(authTestSecret, "ghost", "ghost", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, doGet(router, token).Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		_, err := users.UpdateByID(context.Background(), user.ID,
			bson.M{"$set": bson.M{"isActive": false}})
		require.NoError(t, err)

		token, err := security.IssueSessionToken(authTestSecret, user.ID, user.Username, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, doGet(router, token).Code)
	})
}

// the user record is re-read per request, so a role change applies to an
// existing token without reissue
func TestAuthFreshReadPicksUpRoleChange(t *testing.T) {
	users := store.NewMemoryUsers()
	user := seedAuthUser(t, users)
	router := authRouter(authTestConfig(), users, RequireRoles(models.RoleAdmin))

	token, err := security.IssueSessionToken(authTestSecret, user.ID, user.Username, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doGet(router, token).Code)

	_, err = users.UpdateByID(context.Background(), user.ID,
		bson.M{"$set": bson.M{"role": string(models.RoleAdmin)}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doGet(router, token).Code)
}
