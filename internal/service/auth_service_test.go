package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userportal/api/internal/config"
	"userportal/api/internal/models"
	"userportal/api/internal/security"
	"userportal/api/internal/store"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret: "test_secret",
			TokenTTL:  24 * time.Hour,
		},
	}
}

func newTestAuth(t *testing.T, policy CredentialPolicy) (*AuthService, store.UserStore) {
	t.Helper()
	users := store.NewMemoryUsers()
	svc := NewAuthService(users, policy, testConfig(), zerolog.Nop())
	return svc, users
}

func mustRegister(t *testing.T, svc *AuthService, username, email, password string) models.User {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return result.User
}

func TestRegisterDefaultsAndToken(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)

	result, err := svc.Register(context.Background(), RegisterInput{
		Username:  "jdoe",
		Email:     "John.Doe@Example.com",
		Password:  "password123",
		FirstName: "John",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.Equal(t, models.Permissions{models.PermissionRead}, result.User.Permissions)
	assert.Equal(t, "john.doe@example.com", result.User.Email)
	assert.True(t, result.User.IsActive)
	assert.NotEqual(t, "password123", result.User.PasswordHash)

	claims, err := security.ParseSessionToken(result.Token, "test_secret")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
}

func TestRegisterConflicts(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)
	mustRegister(t, svc, "jdoe", "jdoe@example.com", "password123")

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "jdoe", Email: "new@example.com", Password: "x",
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "new", Email: "jdoe@example.com", Password: "x",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginWithCorrectPassword(t *testing.T) {
	svc, users := newTestAuth(t, PermissiveCredentials)
	registered := mustRegister(t, svc, "jdoe", "jdoe@example.com", "password123")

	result, err := svc.Login(context.Background(), LoginInput{
		Username: "jdoe",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)
	require.NotNil(t, result.User.LastLogin)

	stored, err := users.FindByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)
	mustRegister(t, svc, "jdoe", "jdoe@example.com", "password123")

	_, wrongPassword := svc.Login(context.Background(), LoginInput{
		Username: "jdoe", Password: "wrong",
	})
	_, unknownUser := svc.Login(context.Background(), LoginInput{
		Username: "ghost", Password: "password123",
	})

	// unknown user and wrong password must be indistinguishable
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLoginMissingFields(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)

	_, err := svc.Login(context.Background(), LoginInput{Username: "jdoe"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Login(context.Background(), LoginInput{Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// The structural-match stage: an operator document in place of the password
// coerces the store comparison into always-true, so login succeeds without
// the real password while the policy is permissive.
func TestLoginStructuralPasswordPermissive(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)
	registered := mustRegister(t, svc, "admin", "admin@example.com", "admin123")

	for _, payload := range []any{
		map[string]any{"$ne": nil},
		map[string]any{"$gt": ""},
		map[string]any{"$regex": "^\\$argon2id"},
	} {
		result, err := svc.Login(context.Background(), LoginInput{
			Username: "admin",
			Password: payload,
		})
		require.NoError(t, err, "payload %v", payload)
		assert.Equal(t, registered.ID, result.User.ID)
	}
}

func TestLoginStructuralUsernamePermissive(t *testing.T) {
	svc, _ := newTestAuth(t, PermissiveCredentials)
	mustRegister(t, svc, "admin", "admin@example.com", "admin123")

	result, err := svc.Login(context.Background(), LoginInput{
		Username: map[string]any{"$regex": "^adm"},
		Password: map[string]any{"$ne": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", result.User.Username)
}

func TestLoginStructuralRejectedByStrictPolicy(t *testing.T) {
	svc, _ := newTestAuth(t, StrictCredentials)
	mustRegister(t, svc, "admin", "admin@example.com", "admin123")

	_, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: map[string]any{"$ne": nil},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Login(context.Background(), LoginInput{
		Username: map[string]any{"$regex": ".*"},
		Password: "admin123",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// plain-string credentials still work under the strict policy
	result, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: "admin123",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", result.User.Username)
}

// Stage 1 compares the raw input against the stored document value, i.e.
// the hash text itself - so submitting the stored hash as the "password"
// matches directly, while the real password only works via stage 2.
func TestLoginStageOneComparesStoredValueRaw(t *testing.T) {
	svc, users := newTestAuth(t, PermissiveCredentials)
	registered := mustRegister(t, svc, "jdoe", "jdoe@example.com", "password123")

	stored, err := users.FindByID(context.Background(), registered.ID)
	require.NoError(t, err)

	// submitting the stored hash text as the password hits stage 1
	result, err := svc.Login(context.Background(), LoginInput{
		Username: "jdoe",
		Password: stored.PasswordHash,
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)
}
