package utils

import (
	"errors"
	"time"

	"onboardbuddy/config"
	"onboardbuddy/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var ErrTokenRevoked = errors.New("token has been revoked")

type Claims struct {
	UserID       uint   `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	TokenType    string `json:"token_type"`
	jwt.RegisteredClaims
}

func signToken(user *models.User, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		TokenType:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.EncryptionKey))
}

// GenerateJWTToken returns a 15 minute access token and a 7 day refresh token.
func GenerateJWTToken(user *models.User) (string, string, error) {
	accessToken, err := signToken(user, tokenAccess, AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := signToken(user, tokenRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.EncryptionKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ParseAccessToken rejects refresh tokens presented as access tokens.
func ParseAccessToken(tokenString string) (*Claims, error) {
	claims, err := ParseJWTToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenAccess {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair. Tokens issued
// before the user's last logout are rejected.
func RefreshTokens(db *gorm.DB, refreshToken string) (string, string, error) {
	claims, err := ParseJWTToken(refreshToken)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != tokenRefresh {
		return "", "", errors.New("not a refresh token")
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return "", "", errors.New("user not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrTokenRevoked
	}
	return GenerateJWTToken(&user)
}
