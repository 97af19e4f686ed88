package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleNewHire    = "new_hire"

	PermissionAll = "*"
)

// User represents an account owning one onboarding workspace
type User struct {
	gorm.Model

	// Authentication fields
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	TokenVersion  int    `gorm:"default:0" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name      string `json:"name"`
	Company   string `json:"company"`
	StartDate string `json:"start_date"`

	// Access control
	Roles       []string `gorm:"serializer:json" json:"roles"`
	Permissions []string `gorm:"serializer:json" json:"permissions"`

	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Stripe integration
	StripeCustomerID *string `gorm:"index" json:"stripe_customer_id,omitempty"`

	Subscription *Subscription `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
}

// HasPermission reports whether the user holds permission, with "*" granting everything.
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == PermissionAll || p == permission {
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds role; super admins hold every role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == RoleSuperAdmin || r == role {
			return true
		}
	}
	return false
}

func (u *User) IsSuperAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// GrantSuperAdmin gives the user the super admin role and the wildcard permission.
func (u *User) GrantSuperAdmin() {
	if !u.IsSuperAdmin() {
		u.Roles = append(u.Roles, RoleSuperAdmin)
	}
	if !u.HasPermission(PermissionAll) {
		u.Permissions = append(u.Permissions, PermissionAll)
	}
}
