// Package handler exposes login, invitations and the caller's own profile
// over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	"github.com/crewboard/crewboard-backend/internal/auth/repository"
	"github.com/crewboard/crewboard-backend/internal/auth/service"
	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// AuthService is the session API used by AuthHandler
type AuthService interface {
	Login(ctx context.Context, req *service.LoginRequest) (*service.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	ChangePassword(ctx context.Context, req *service.ChangePasswordRequest) error
	Me(ctx context.Context) (*orgrepo.UserProfile, error)
	Capabilities(ctx context.Context) (*service.CapabilitiesResponse, error)
}

// InvitationService is the invitation API used by AuthHandler
type InvitationService interface {
	Create(ctx context.Context, req *service.CreateInvitationRequest) (*service.CreateInvitationResponse, error)
	List(ctx context.Context, status string) ([]*repository.Invitation, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	Lookup(ctx context.Context, token string) (*service.InvitationInfo, error)
	Accept(ctx context.Context, token string, req *service.AcceptInvitationRequest) (*orgrepo.UserProfile, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth        AuthService
	invitations InvitationService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthService, invitations InvitationService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, invitations: invitations, logger: log}
}

// MountPublic registers the routes that run before a caller exists. login
// wraps the login route, typically with a rate limiter.
func (h *AuthHandler) MountPublic(r chi.Router, login func(http.Handler) http.Handler) {
	if login == nil {
		login = func(next http.Handler) http.Handler { return next }
	}
	r.With(login).Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Get("/auth/invite/{token}", h.LookupInvitation)
	r.Post("/auth/invite/{token}/accept", h.AcceptInvitation)
}

// Mount registers the authenticated routes
func (h *AuthHandler) Mount(r chi.Router) {
	r.Put("/auth/password", h.ChangePassword)
	r.Get("/me", h.Me)
	r.Get("/me/capabilities", h.Capabilities)

	r.Route("/auth/invitations", func(r chi.Router) {
		r.Get("/", h.ListInvitations)
		r.Post("/", h.CreateInvitation)
		r.Delete("/{id}", h.RevokeInvitation)
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	response, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, response)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tokens)
}

// ChangePassword changes the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Me returns the current user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// Capabilities returns what the current user can do, per site
func (h *AuthHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.auth.Capabilities(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, caps)
}

// CreateInvitation invites an email into the organization
func (h *AuthHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInvitationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	resp, err := h.invitations.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, resp)
}

// ListInvitations lists invitations. Filter: status.
func (h *AuthHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	items, err := h.invitations.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, items)
}

// RevokeInvitation revokes a pending invitation
func (h *AuthHandler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, errors.BadRequest("invalid id"))
		return
	}

	if err := h.invitations.Revoke(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// LookupInvitation shows an invitation to its invitee
func (h *AuthHandler) LookupInvitation(w http.ResponseWriter, r *http.Request) {
	info, err := h.invitations.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, info)
}

// AcceptInvitation creates the invited user
func (h *AuthHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req service.AcceptInvitationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.invitations.Accept(r.Context(), chi.URLParam(r, "token"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, user)
}
