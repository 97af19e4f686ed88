package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"onboardbuddy/config"
	"onboardbuddy/models"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=100"`
	Company  string `json:"company" validate:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

type AuthController struct {
	DB               *gorm.DB
	Logger           *log.Logger
	SuperAdminEmails []string
	googleOAuth      *oauth2.Config
	secureCookies    bool
}

func NewAuthController(db *gorm.DB, cfg config.Config, logger *log.Logger) *AuthController {
	return &AuthController{
		DB:               db,
		Logger:           logger,
		SuperAdminEmails: cfg.SuperAdminEmails,
		googleOAuth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		secureCookies: cfg.Environment == "production",
	}
}

func (ac *AuthController) isSuperAdminEmail(email string) bool {
	email = strings.ToLower(email)
	for _, e := range ac.SuperAdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// newUser fills in the role defaults: new hires have no permissions and
// configured super admin addresses get everything.
func (ac *AuthController) newUser(email, name, company string) models.User {
	user := models.User{
		Email:       strings.ToLower(email),
		Name:        name,
		Company:     company,
		StartDate:   time.Now().Format("2006-01-02"),
		Roles:       []string{models.RoleNewHire},
		Permissions: []string{},
		IsActive:    true,
	}
	if ac.isSuperAdminEmail(email) {
		user.GrantSuperAdmin()
	}
	return user
}

// createDefaultSubscription never fails the signup.
func (ac *AuthController) createDefaultSubscription(user *models.User) {
	if err := models.CreateDefaultSubscription(ac.DB, user.ID); err != nil {
		ac.Logger.Printf("Failed to create subscription record for user %d: %v", user.ID, err)
		utils.LogError("default_subscription", err, map[string]interface{}{"user_id": user.ID})
	}
}

func (ac *AuthController) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(utils.AccessTokenTTL),
		HTTPOnly: true,
		Secure:   ac.secureCookies,
		SameSite: "Lax",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(utils.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   ac.secureCookies,
		SameSite: "Lax",
	})
}

func (ac *AuthController) issueTokens(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, refreshToken, err := utils.GenerateJWTToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate tokens",
		})
	}
	ac.setAuthCookies(c, accessToken, refreshToken)
	return c.Status(status).JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var existingUser models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(req.Email)).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An account with this email already exists. Please try logging in instead.",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := ac.newUser(req.Email, req.Name, req.Company)
	user.PasswordHash = string(hashedPassword)
	if err := ac.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}
	ac.createDefaultSubscription(&user)

	utils.LogEvent("user_registered", map[string]interface{}{"user_id": user.ID})
	return ac.issueTokens(c, fiber.StatusCreated, &user)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}

	now := time.Now()
	user.LastLoginAt = &now
	fields := []string{"last_login_at"}
	if ac.isSuperAdminEmail(user.Email) && !user.IsSuperAdmin() {
		user.GrantSuperAdmin()
		fields = append(fields, "roles", "permissions")
	}
	if err := ac.DB.Model(&user).Select(fields).Updates(&user).Error; err != nil {
		ac.Logger.Printf("Failed to record login for user %d: %v", user.ID, err)
	}

	return ac.issueTokens(c, fiber.StatusOK, &user)
}

// Logout revokes every outstanding token by bumping the token version.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if err := ac.DB.Model(user).Update("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}
	c.ClearCookie("access_token", "refresh_token")
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user := c.Locals("user").(*models.User)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid current password",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user.PasswordHash = string(hashedPassword)
	user.TokenVersion++
	if err := ac.DB.Model(user).Updates(map[string]interface{}{
		"password_hash": user.PasswordHash,
		"token_version": user.TokenVersion,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update password",
		})
	}

	return ac.issueTokens(c, fiber.StatusOK, user)
}

// RefreshToken accepts the token in the body or the refresh_token cookie.
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	_ = c.BodyParser(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies("refresh_token")
	}
	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}

	accessToken, refreshToken, err := utils.RefreshTokens(ac.DB, req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	ac.setAuthCookies(c, accessToken, refreshToken)

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if err := ac.DB.Preload("Subscription").First(user, user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load user",
		})
	}
	return c.JSON(user)
}

// UpdateUserAccess replaces a user's roles and permissions.
func (ac *AuthController) UpdateUserAccess(c *fiber.Ctx) error {
	var req struct {
		Roles       []string `json:"roles" validate:"required,dive,required"`
		Permissions []string `json:"permissions" validate:"dive,required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if req.Permissions == nil {
		req.Permissions = []string{}
	}

	id := utils.ParseUint(c.Params("id"))
	var user models.User
	if id == 0 || ac.DB.First(&user, id).Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	user.Roles = req.Roles
	user.Permissions = req.Permissions
	if err := ac.DB.Model(&user).Select("roles", "permissions").Updates(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	utils.LogEvent("user_access_changed", map[string]interface{}{
		"user_id":    user.ID,
		"changed_by": performedBy(c),
	})
	return c.JSON(user)
}

func (ac *AuthController) GoogleOAuth(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   ac.secureCookies,
		SameSite: "Lax",
	})

	url := ac.googleOAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Verified bool   `json:"verified_email"`
}

func (ac *AuthController) fetchGoogleUser(ctx context.Context, code string) (*googleUserInfo, error) {
	token, err := ac.googleOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("failed to exchange token: " + err.Error())
	}

	resp, err := ac.googleOAuth.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, errors.New("failed to get user info: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.New("google API error: " + string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.New("failed to parse user info: " + err.Error())
	}
	if info.Email == "" {
		return nil, errors.New("google account email is required")
	}
	return &info, nil
}

func (ac *AuthController) GoogleOAuthCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	cookieState := c.Cookies("oauth_state")
	if state == "" || cookieState == "" || state != cookieState {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state parameter",
		})
	}
	c.ClearCookie("oauth_state")

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Authorization code not provided",
		})
	}

	info, err := ac.fetchGoogleUser(c.UserContext(), code)
	if err != nil {
		ac.Logger.Printf("Google sign-in failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	err = ac.DB.Where("email = ?", strings.ToLower(info.Email)).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = ac.newUser(info.Email, info.Name, "")
		user.GoogleID = &info.ID
		user.GoogleImageURL = &info.Picture
		user.EmailVerified = info.Verified
		if err := ac.DB.Create(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create user",
			})
		}
		ac.createDefaultSubscription(&user)
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	default:
		if user.GoogleID == nil || *user.GoogleID != info.ID || (!user.EmailVerified && info.Verified) {
			user.GoogleID = &info.ID
			user.GoogleImageURL = &info.Picture
			user.EmailVerified = user.EmailVerified || info.Verified
			if err := ac.DB.Save(&user).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to update user",
				})
			}
		}
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}
	return ac.issueTokens(c, fiber.StatusOK, &user)
}
