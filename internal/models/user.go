package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether s names one of the closed set of roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type Permission string

const (
	PermissionRead       Permission = "read"
	PermissionWrite      Permission = "write"
	PermissionDelete     Permission = "delete"
	PermissionAdmin      Permission = "admin"
	PermissionFlagAccess Permission = "flag_access"
)

// Permissions is a capability set. It is deliberately independent of Role:
// a plain user may hold flag_access and an admin may hold none.
type Permissions []Permission

func (p Permissions) Has(perm Permission) bool {
	for _, candidate := range p {
		if candidate == perm {
			return true
		}
	}
	return false
}

type Profile struct {
	FirstName  string `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName   string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Position   string `bson:"position,omitempty" json:"position,omitempty"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type User struct {
	ID string `bson:"_id" json:"id"`

	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`

	// PasswordHash holds the argon2id-encoded secret. It lives under the
	// document field "password" and is never serialized to clients.
	PasswordHash string `bson:"password" json:"-"`

	Role        Role        `bson:"role" json:"role"`
	Permissions Permissions `bson:"permissions" json:"permissions"`
	Profile     Profile     `bson:"profile" json:"profile"`

	IsActive  bool       `bson:"isActive" json:"isActive"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}
