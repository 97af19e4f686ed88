package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermissionsAndRoles(t *testing.T) {
	u := &User{Roles: []string{RoleNewHire}, Permissions: []string{"tasks:read"}}

	assert.True(t, u.HasPermission("tasks:read"))
	assert.False(t, u.HasPermission("users:manage"))
	assert.True(t, u.HasRole(RoleNewHire))
	assert.False(t, u.HasRole(RoleAdmin))
	assert.False(t, u.IsSuperAdmin())

	u.GrantSuperAdmin()
	u.GrantSuperAdmin()
	assert.True(t, u.HasPermission("users:manage"))
	assert.True(t, u.HasRole(RoleAdmin))
	assert.Equal(t, []string{RoleNewHire, RoleSuperAdmin}, u.Roles)
	assert.Equal(t, []string{"tasks:read", PermissionAll}, u.Permissions)
}

func TestSubscriptionIsPremium(t *testing.T) {
	var none *Subscription
	assert.False(t, none.IsPremium())
	assert.False(t, (&Subscription{Plan: PlanFree, Status: SubscriptionActive}).IsPremium())
	assert.False(t, (&Subscription{Plan: PlanPremium, Status: "past_due"}).IsPremium())
	assert.True(t, (&Subscription{Plan: PlanPremium, Status: SubscriptionActive}).IsPremium())
}

func TestShareAndActivationExpiry(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	assert.False(t, (&SharedWorkflow{}).Expired(now), "links without an expiry never expire")
	assert.True(t, (&SharedWorkflow{ExpiresAt: &past}).Expired(now))

	code := &ActivationCode{ExpiresAt: now.Add(ActivationCodeTTL)}
	assert.True(t, code.Usable(now))
	assert.False(t, code.Usable(now.Add(ActivationCodeTTL)))
	code.UsedAt = &now
	assert.False(t, code.Usable(now))
}
