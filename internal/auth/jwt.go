package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by both access and refresh tokens.
// The two token kinds share a shape but are signed with distinct secrets, so
// one can never be presented in place of the other.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates access and refresh token pairs.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a token manager. The access and refresh secrets
// must differ; config validation enforces that before the manager is built.
func NewTokenManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GeneratePair issues a fresh access/refresh token pair for the user.
func (m *TokenManager) GeneratePair(userID, email string) (access, refresh string, err error) {
	access, err = m.GenerateAccessToken(userID, email)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.GenerateRefreshToken(userID, email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// GenerateAccessToken creates a signed short-lived access token.
func (m *TokenManager) GenerateAccessToken(userID, email string) (string, error) {
	return m.sign(userID, email, m.accessSecret, m.accessExpiry, "sign access token")
}

// GenerateRefreshToken creates a signed long-lived refresh token.
func (m *TokenManager) GenerateRefreshToken(userID, email string) (string, error) {
	return m.sign(userID, email, m.refreshSecret, m.refreshExpiry, "sign refresh token")
}

func (m *TokenManager) sign(userID, email string, secret []byte, expiry time.Duration, op string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    "snapcook",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signedToken, nil
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.accessSecret, "access")
}

// ValidateRefreshToken parses and validates a refresh token, returning the claims.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.refreshSecret, "refresh")
}

func (m *TokenManager) validate(tokenString string, secret []byte, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", kind, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid %s token claims", kind)
	}

	return claims, nil
}
