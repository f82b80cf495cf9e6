package auth

import (
	"errors"
	"fmt"
)

// ErrSessionExpired means neither the access token nor the refresh token
// could establish an identity; the client must sign in again.
var ErrSessionExpired = errors.New("session expired")

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID string
	Email  string
}

// SessionGuard authenticates requests from an access token, silently renewing
// the session from the refresh token when the access token has gone stale.
type SessionGuard struct {
	tokens *TokenManager
}

// NewSessionGuard creates a session guard backed by the given token manager.
func NewSessionGuard(tokens *TokenManager) *SessionGuard {
	return &SessionGuard{tokens: tokens}
}

// Authenticate resolves an identity from the presented tokens. A valid access
// token wins outright and the refresh token is never inspected. If the access
// token is invalid or expired but the refresh token is valid, the identity is
// taken from the refresh token and a renewed access token is returned so the
// caller can hand it back to the client. Otherwise ErrSessionExpired.
func (g *SessionGuard) Authenticate(accessToken, refreshToken string) (*Identity, string, error) {
	if claims, err := g.tokens.ValidateAccessToken(accessToken); err == nil {
		return &Identity{UserID: claims.UserID, Email: claims.Email}, "", nil
	}

	if refreshToken == "" {
		return nil, "", ErrSessionExpired
	}

	claims, err := g.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, "", ErrSessionExpired
	}

	renewed, err := g.tokens.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, "", fmt.Errorf("renew access token: %w", err)
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email}, renewed, nil
}
