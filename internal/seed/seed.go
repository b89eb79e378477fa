// Package seed loads the training scenario's demo dataset: a handful of
// portal accounts with mixed roles and permission sets, and the flag the
// flag_access capability protects.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"userportal/api/internal/ids"
	"userportal/api/internal/models"
	"userportal/api/internal/security"
	"userportal/api/internal/store"
)

type seedUser struct {
	Username    string
	Email       string
	Password    string
	Role        models.Role
	Permissions models.Permissions
	Profile     models.Profile
}

var demoUsers = []seedUser{
	{
		Username: "admin",
		Email:    "admin@userportal.com",
		Password: "admin123",
		Role:     models.RoleAdmin,
		Permissions: models.Permissions{
			models.PermissionRead, models.PermissionWrite, models.PermissionDelete,
			models.PermissionAdmin, models.PermissionFlagAccess,
		},
		Profile: models.Profile{
			FirstName: "System", LastName: "Administrator",
			Department: "IT", Position: "System Admin", Phone: "+1-555-0001",
		},
	},
	{
		Username:    "jdoe",
		Email:       "john.doe@userportal.com",
		Password:    "password123",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead, models.PermissionWrite},
		Profile: models.Profile{
			FirstName: "John", LastName: "Doe",
			Department: "Engineering", Position: "Software Developer", Phone: "+1-555-0002",
		},
	},
	{
		Username:    "msmith",
		Email:       "mary.smith@userportal.com",
		Password:    "secure456",
		Role:        models.RoleModerator,
		Permissions: models.Permissions{models.PermissionRead, models.PermissionWrite, models.PermissionDelete},
		Profile: models.Profile{
			FirstName: "Mary", LastName: "Smith",
			Department: "HR", Position: "HR Manager", Phone: "+1-555-0003",
		},
	},
	{
		Username:    "bwilson",
		Email:       "bob.wilson@userportal.com",
		Password:    "mypass789",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead},
		Profile: models.Profile{
			FirstName: "Bob", LastName: "Wilson",
			Department: "Marketing", Position: "Marketing Specialist", Phone: "+1-555-0004",
		},
	},
	{
		Username:    "ajohnson",
		Email:       "alice.johnson@userportal.com",
		Password:    "alice2024",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead, models.PermissionWrite},
		Profile: models.Profile{
			FirstName: "Alice", LastName: "Johnson",
			Department: "Finance", Position: "Financial Analyst", Phone: "+1-555-0005",
		},
	},
	{
		Username:    "ctaylor",
		Email:       "chris.taylor@userportal.com",
		Password:    "chris123",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead, models.PermissionWrite},
		Profile: models.Profile{
			FirstName: "Chris", LastName: "Taylor",
			Department: "Engineering", Position: "DevOps Engineer", Phone: "+1-555-0006",
		},
	},
	{
		Username:    "sgarcia",
		Email:       "sarah.garcia@userportal.com",
		Password:    "sarah456",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead},
		Profile: models.Profile{
			FirstName: "Sarah", LastName: "Garcia",
			Department: "Design", Position: "UX Designer", Phone: "+1-555-0007",
		},
	},
	{
		Username:    "dlee",
		Email:       "david.lee@userportal.com",
		Password:    "david789",
		Role:        models.RoleUser,
		Permissions: models.Permissions{models.PermissionRead},
		Profile: models.Profile{
			FirstName: "David", LastName: "Lee",
			Department: "Sales", Position: "Sales Representative", Phone: "+1-555-0008",
		},
	},
}

// Apply inserts the demo users and flag, skipping records that already
// exist so restarts are safe.
func Apply(ctx context.Context, users store.UserStore, flags store.FlagStore, log zerolog.Logger) error {
	for _, demo := range demoUsers {
		hash, err := security.HashPassword(demo.Password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}

		_, err = users.Insert(ctx, models.User{
			ID:           ids.New(),
			Username:     demo.Username,
			Email:        demo.Email,
			PasswordHash: hash,
			Role:         demo.Role,
			Permissions:  demo.Permissions,
			Profile:      demo.Profile,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed user %s: %w", demo.Username, err)
		}
		log.Debug().Str("username", demo.Username).Msg("seeded user")
	}

	_, err := flags.Insert(ctx, models.Flag{
		ID:          ids.New(),
		Name:        "nosql_injection_flag",
		Value:       "CTF{n0sql_1nj3ct10n_m4st3r}",
		Description: "Flag for NoSQL Injection challenge",
		Category:    models.FlagCategoryWeb,
		Points:      150,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("seed flag: %w", err)
	}

	log.Info().Int("users", len(demoUsers)).Msg("demo data ready")
	return nil
}
