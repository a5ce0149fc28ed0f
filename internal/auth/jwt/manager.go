// Package jwt issues and validates the access and refresh tokens.
package jwt

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents the JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	BaseRole       string `json:"base_role"`
	TokenType      string `json:"token_type"`
}

// Actor rebuilds the caller carried by the token
func (c *Claims) Actor() (*actor.Actor, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil {
		return nil, errors.TokenInvalid()
	}
	org, err := uuid.Parse(c.OrganizationID)
	if err != nil {
		return nil, errors.TokenInvalid()
	}
	return &actor.Actor{
		ID:             id,
		OrganizationID: org,
		Email:          c.Email,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		BaseRole:       c.BaseRole,
	}, nil
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg, now: time.Now}
}

// TokenPair contains access and refresh tokens
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// GenerateTokenPair generates both access and refresh tokens for a
func (m *Manager) GenerateTokenPair(a *actor.Actor) (*TokenPair, error) {
	now := m.now()
	accessExpiry := now.Add(m.config.AccessExpiry)

	access, err := m.sign(a, tokenTypeAccess, now, accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(a, tokenTypeRefresh, now, now.Add(m.config.RefreshExpiry))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry,
		TokenType:    "Bearer",
	}, nil
}

func (m *Manager) sign(a *actor.Actor, tokenType string, now, expiry time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   a.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:         a.ID.String(),
		OrganizationID: a.OrganizationID.String(),
		Email:          a.Email,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		BaseRole:       a.BaseRole,
		TokenType:      tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the claims
func (m *Manager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, tokenTypeRefresh)
}

func (m *Manager) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}

// GetTokenExpiry returns the access token expiry duration
func (m *Manager) GetTokenExpiry() time.Duration {
	return m.config.AccessExpiry
}
