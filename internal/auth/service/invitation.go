package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/auth/repository"
	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// DefaultInvitationExpiry applies when no expiry is configured
const DefaultInvitationExpiry = 72 * time.Hour

// InvitationStore persists invitations
type InvitationStore interface {
	Create(ctx context.Context, inv *repository.Invitation) error
	List(ctx context.Context, status string) ([]*repository.Invitation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Invitation, error)
	HasPending(ctx context.Context, email string) (bool, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	GetByTokenHash(ctx context.Context, hash string) (*repository.Invitation, error)
	Accept(ctx context.Context, inv *repository.Invitation, account *repository.Account) error
}

// InvitationService handles invitation business logic
type InvitationService struct {
	invitations InvitationStore
	accounts    AccountStore
	publisher   messaging.EventPublisher
	config      config.AuthConfig
	logger      *logger.Logger
	now         func() time.Time
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitations InvitationStore, accounts AccountStore, publisher messaging.EventPublisher, cfg config.AuthConfig, log *logger.Logger) *InvitationService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	if cfg.InviteExpiry <= 0 {
		cfg.InviteExpiry = DefaultInvitationExpiry
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	return &InvitationService{
		invitations: invitations,
		accounts:    accounts,
		publisher:   publisher,
		config:      cfg,
		logger:      log,
		now:         time.Now,
	}
}

// CreateInvitationRequest invites an email into the caller's organization
type CreateInvitationRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	BaseRole string `json:"base_role" validate:"required,oneof=admin superintendent engineer foreman worker"`
}

// CreateInvitationResponse includes the invitation and its one-time URL
type CreateInvitationResponse struct {
	Invitation *repository.Invitation `json:"invitation"`
	InviteURL  string                 `json:"invite_url"`
}

// Create creates a pending invitation. The raw token only appears in the
// returned URL; the database keeps its sha256.
func (s *InvitationService) Create(ctx context.Context, req *CreateInvitationRequest) (*CreateInvitationResponse, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), permissions.InvitationsManage) {
		return nil, errors.Forbidden("only organization admins may invite users")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.accounts.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.Conflict("a user with this email already exists")
	}
	pending, err := s.invitations.HasPending(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errors.Conflict("a pending invitation already exists for this email")
	}

	token, err := generateToken()
	if err != nil {
		return nil, errors.Internal("failed to generate invitation token")
	}
	inv := &repository.Invitation{
		OrganizationID: a.OrganizationID,
		Email:          email,
		BaseRole:       req.BaseRole,
		TokenHash:      HashToken(token),
		ExpiresAt:      s.now().Add(s.config.InviteExpiry),
		InvitedBy:      a.IDOrNil(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventUserInvited, inv.ID, inv.OrganizationID)
	s.logger.Info().
		Str("invitation_id", inv.ID.String()).
		Str("email", inv.Email).
		Str("base_role", inv.BaseRole).
		Msg("invitation created")

	return &CreateInvitationResponse{
		Invitation: inv,
		InviteURL:  strings.TrimRight(s.config.InviteBaseURL, "/") + "/" + token,
	}, nil
}

// List lists the organization's invitations
func (s *InvitationService) List(ctx context.Context, status string) ([]*repository.Invitation, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), permissions.InvitationsManage) {
		return nil, errors.Forbidden("only organization admins may list invitations")
	}
	switch status {
	case "", repository.InvitationPending, repository.InvitationAccepted, repository.InvitationRevoked:
	default:
		return nil, errors.Validation(map[string]string{"status": "must be one of: pending accepted revoked"})
	}
	return s.invitations.List(ctx, status)
}

// Revoke revokes a pending invitation
func (s *InvitationService) Revoke(ctx context.Context, id uuid.UUID) error {
	a, err := caller(ctx)
	if err != nil {
		return err
	}
	if !permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), permissions.InvitationsManage) {
		return errors.Forbidden("only organization admins may revoke invitations")
	}

	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != repository.InvitationPending {
		return errors.BadRequest("only pending invitations can be revoked")
	}
	if err := s.invitations.Revoke(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("invitation_id", id.String()).Str("revoked_by", a.ID.String()).Msg("invitation revoked")
	return nil
}

// InvitationInfo is what an invitee sees before accepting
type InvitationInfo struct {
	Email            string    `json:"email"`
	BaseRole         string    `json:"base_role"`
	OrganizationName string    `json:"organization_name"`
	ExpiresAt        time.Time `json:"expires_at"`
	Valid            bool      `json:"valid"`
}

// Lookup returns the public view of an invitation by raw token
func (s *InvitationService) Lookup(ctx context.Context, token string) (*InvitationInfo, error) {
	inv, err := s.invitations.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}
	return &InvitationInfo{
		Email:            inv.Email,
		BaseRole:         inv.BaseRole,
		OrganizationName: inv.OrganizationName,
		ExpiresAt:        inv.ExpiresAt,
		Valid:            inv.Usable(s.now()),
	}, nil
}

// AcceptInvitationRequest sets the new user's name and password
type AcceptInvitationRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Password  string `json:"password" validate:"required,max=72"`
}

// Accept creates the invited user and settles the invitation
func (s *InvitationService) Accept(ctx context.Context, token string, req *AcceptInvitationRequest) (*orgrepo.UserProfile, error) {
	if len(req.Password) < s.config.MinPasswordLength {
		return nil, errors.Validation(map[string]string{"password": "is too short"})
	}

	inv, err := s.invitations.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}
	if !inv.Usable(s.now()) {
		return nil, errors.InvitationInvalid()
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	account := &repository.Account{}
	account.FirstName = strings.TrimSpace(req.FirstName)
	account.LastName = strings.TrimSpace(req.LastName)
	account.PasswordHash.String, account.PasswordHash.Valid = hash, true

	if err := s.invitations.Accept(ctx, inv, account); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventUserJoined, account.ID, account.OrganizationID)
	s.logger.Info().
		Str("user_id", account.ID.String()).
		Str("invitation_id", inv.ID.String()).
		Msg("invitation accepted")

	return &account.UserProfile, nil
}

func (s *InvitationService) publish(ctx context.Context, eventType string, id, org uuid.UUID) {
	data := messaging.ChangeEvent{EntityID: id, OrganizationID: org}
	if a, err := caller(ctx); err == nil {
		data.ActorID = a.IDOrNil()
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish invitation event")
	}
}

// HashToken returns the stored form of an invitation token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
