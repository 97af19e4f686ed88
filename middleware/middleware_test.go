package middleware

import (
	"net/http/httptest"
	"testing"

	"onboardbuddy/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error { return c.SendString("ok") }

func TestRequirePermission(t *testing.T) {
	cases := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"anonymous", nil, fiber.StatusForbidden},
		{"missing permission", &models.User{Permissions: []string{"tasks:read"}}, fiber.StatusForbidden},
		{"granted", &models.User{Permissions: []string{"users:manage"}}, fiber.StatusOK},
		{"wildcard", &models.User{Permissions: []string{models.PermissionAll}}, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withUser(tc.user), RequirePermission("users:manage"), ok)

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoleSuperAdminImpliesAll(t *testing.T) {
	app := fiber.New()
	app.Get("/", withUser(&models.User{Roles: []string{models.RoleSuperAdmin}}), RequireRole(models.RoleAdmin), ok)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(DefaultCORSConfig("https://app.example.com")))
	app.Get("/", ok)

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", resp.Header.Get("Access-Control-Max-Age"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Stripe-Signature")

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUploadRateLimiterKeysByUser(t *testing.T) {
	app := fiber.New()
	user := &models.User{}
	user.ID = 9
	app.Post("/", withUser(user), UploadRateLimiter(2, nil), ok)

	statuses := []int{}
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, statuses)
}

func TestAdminGroupNeedsRoleAndPermission(t *testing.T) {
	cases := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"permission without role", &models.User{Permissions: []string{"users:manage"}}, fiber.StatusForbidden},
		{"role without permission", &models.User{Roles: []string{models.RoleAdmin}}, fiber.StatusForbidden},
		{"admin", &models.User{Roles: []string{models.RoleAdmin}, Permissions: []string{"users:manage"}}, fiber.StatusOK},
		{"super admin", &models.User{Roles: []string{models.RoleSuperAdmin}, Permissions: []string{models.PermissionAll}}, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Put("/", withUser(tc.user), RequireRole(models.RoleAdmin), RequirePermission("users:manage"), ok)

			resp, err := app.Test(httptest.NewRequest("PUT", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
