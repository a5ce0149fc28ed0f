// Package service implements login, token refresh, password changes and
// invitations.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	"github.com/crewboard/crewboard-backend/internal/auth/repository"
	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// AccountStore reads and updates credentials
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*repository.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	TouchLogin(ctx context.Context, id uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
}

// SiteRoleSource resolves the caller's role on every visible site
type SiteRoleSource interface {
	SiteRoles(ctx context.Context) (map[uuid.UUID]string, error)
}

// AuthService handles authentication logic
type AuthService struct {
	accounts   AccountStore
	sites      SiteRoleSource
	jwtManager *jwt.Manager
	config     config.AuthConfig
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(accounts AccountStore, sites SiteRoleSource, jwtManager *jwt.Manager, cfg config.AuthConfig, log *logger.Logger) *AuthService {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	return &AuthService{
		accounts:   accounts,
		sites:      sites,
		jwtManager: jwtManager,
		config:     cfg,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	ExpiresAt    time.Time            `json:"expires_at"`
	TokenType    string               `json:"token_type"`
	User         *orgrepo.UserProfile `json:"user"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}
	if !checkPassword(account, req.Password) {
		return nil, errors.InvalidCredentials()
	}
	if !account.IsActive {
		return nil, errors.Unauthorized("account is deactivated")
	}

	tokens, err := s.jwtManager.GenerateTokenPair(account.Actor())
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	if err := s.accounts.TouchLogin(ctx, account.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", account.ID.String()).Msg("failed to record login")
	}
	now := time.Now()
	account.LastLoginAt = &now

	s.logger.Info().
		Str("user_id", account.ID.String()).
		Str("organization_id", account.OrganizationID.String()).
		Msg("user logged in")

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         &account.UserProfile,
	}, nil
}

// Refresh issues a new token pair for a still-active user. Role and name
// changes since the last login are picked up here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.TokenInvalid()
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, errors.Unauthorized("account is deactivated")
	}

	return s.jwtManager.GenerateTokenPair(account.Actor())
}

// ChangePasswordRequest changes the caller's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

// ChangePassword verifies the current password and stores the new one
func (s *AuthService) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	a, err := caller(ctx)
	if err != nil {
		return err
	}
	if len(req.NewPassword) < s.config.MinPasswordLength {
		return errors.Validation(map[string]string{"new_password": "is too short"})
	}

	account, err := s.accounts.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if !checkPassword(account, req.CurrentPassword) {
		return errors.Validation(map[string]string{"current_password": "is incorrect"})
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.SetPassword(ctx, a.ID, hash); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", a.ID.String()).Msg("password changed")
	return nil
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context) (*orgrepo.UserProfile, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &account.UserProfile, nil
}

// CapabilitiesResponse lists what the caller can do, organization-wide and
// per visible site
type CapabilitiesResponse struct {
	permissions.SiteAccess
	Permissions map[string][]string `json:"permissions"`
}

// Capabilities resolves the caller's permissions through the same SQL
// helpers the row policies use
func (s *AuthService) Capabilities(ctx context.Context) (*CapabilitiesResponse, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.sites.SiteRoles(ctx)
	if err != nil {
		return nil, err
	}

	access := permissions.SiteAccess{BaseRole: a.BaseRole, SiteRoles: make(map[string]string, len(roles))}
	for site, role := range roles {
		access.SiteRoles[site.String()] = role
	}
	return &CapabilitiesResponse{SiteAccess: access, Permissions: access.Capabilities()}, nil
}

func caller(ctx context.Context) (*actor.Actor, error) {
	a, ok := actor.FromContext(ctx)
	if !ok || a.IsSystem() {
		return nil, errors.Unauthorized("authentication required")
	}
	return a, nil
}

func checkPassword(account *repository.Account, password string) bool {
	if !account.PasswordHash.Valid || account.PasswordHash.String == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash.String), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Internal("failed to hash password")
	}
	return string(hash), nil
}
