package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/config"
	"userportal/api/internal/ids"
	"userportal/api/internal/models"
	"userportal/api/internal/security"
	"userportal/api/internal/store"
)

var (
	ErrInvalidInput = errors.New("username and password are required")
	// ErrInvalidCredentials deliberately covers both "unknown user" and
	// "wrong password" so responses cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username or email already exists")
)

// CredentialPolicy decides whether raw login fields may proceed to the store
// query. The permissive policy passes anything through, which leaves the
// structural-match stage open to operator-bearing input; the strict policy
// pins both fields to plain strings before they can reach a query.
type CredentialPolicy func(username, password any) error

func PermissiveCredentials(username, password any) error {
	return nil
}

func StrictCredentials(username, password any) error {
	if _, ok := username.(string); !ok {
		return ErrInvalidInput
	}
	if _, ok := password.(string); !ok {
		return ErrInvalidInput
	}
	return nil
}

type AuthService struct {
	users  store.UserStore
	policy CredentialPolicy
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users store.UserStore, policy CredentialPolicy, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	if policy == nil {
		policy = PermissiveCredentials
	}
	return &AuthService{
		users:  users,
		policy: policy,
		cfg:    cfg,
		log:    log,
	}
}

// LoginInput carries the two credential fields exactly as the request body
// decoded them. The fields are any, not string: whether a client may smuggle
// query structure through them is the credential policy's call.
type LoginInput struct {
	Username any
	Password any
}

type AuthResult struct {
	Token string
	User  models.User
}

// Login resolves a credential attempt in two stages, structural match first.
//
// Stage 1 places both raw fields into a FindOne filter and compares them
// against the stored document values. With string inputs that can only match
// a user whose stored hash literally equals the supplied text; with operator
// documents the comparison's meaning changes and a record can match without
// the true password.
//
// Stage 2 runs only when stage 1 misses: look the user up by username and
// verify the supplied password against the stored hash.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if input.Username == nil || input.Password == nil {
		return AuthResult{}, ErrInvalidInput
	}
	if err := s.policy(input.Username, input.Password); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.FindOne(ctx, bson.M{
		"username": input.Username,
		"password": input.Password,
	})
	if err == nil {
		s.log.Info().Str("username", user.Username).Str("stage", "direct").Msg("login ok")
		return s.finishLogin(ctx, user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, err
	}

	user, err = s.users.FindOne(ctx, bson.M{"username": input.Username})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	password, ok := input.Password.(string)
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}
	verified, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !verified {
		return AuthResult{}, ErrInvalidCredentials
	}

	s.log.Info().Str("username", user.Username).Str("stage", "verified").Msg("login ok")
	return s.finishLogin(ctx, user)
}

func (s *AuthService) finishLogin(ctx context.Context, user models.User) (AuthResult, error) {
	now := time.Now().UTC()
	updated, err := s.users.UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{"lastLogin": now},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("last login update failed")
		updated = user
	}

	token, err := security.IssueSessionToken(
		s.cfg.Security.JWTSecret, updated.ID, updated.Username, s.cfg.Security.TokenTTL)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token, User: updated}, nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a user with the default role and permission set and
// returns a session right away.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return AuthResult{}, ErrInvalidInput
	}

	if _, err := s.users.FindOne(ctx, bson.M{"$or": []any{
		bson.M{"username": input.Username},
		bson.M{"email": input.Email},
	}}); err == nil {
		return AuthResult{}, ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		Permissions:  models.Permissions{models.PermissionRead},
		Profile: models.Profile{
			FirstName: input.FirstName,
			LastName:  input.LastName,
		},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return AuthResult{}, ErrConflict
		}
		return AuthResult{}, err
	}

	token, err := security.IssueSessionToken(
		s.cfg.Security.JWTSecret, created.ID, created.Username, s.cfg.Security.TokenTTL)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return AuthResult{Token: token, User: created}, nil
}
