package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/auth/handler"
	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	"github.com/crewboard/crewboard-backend/internal/auth/service"
	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/testutil"
)

type stubAuth struct {
	handler.AuthService
	login *service.LoginRequest
}

func (s *stubAuth) Login(_ context.Context, req *service.LoginRequest) (*service.LoginResponse, error) {
	s.login = req
	if req.Password != "correct horse" {
		return nil, errors.InvalidCredentials()
	}
	return &service.LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (s *stubAuth) Me(ctx context.Context) (*orgrepo.UserProfile, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized("authentication required")
	}
	return &orgrepo.UserProfile{ID: a.ID, Email: a.Email}, nil
}

type stubInvitations struct {
	handler.InvitationService
	token string
}

func (s *stubInvitations) Accept(_ context.Context, token string, req *service.AcceptInvitationRequest) (*orgrepo.UserProfile, error) {
	s.token = token
	return &orgrepo.UserProfile{FirstName: req.FirstName}, nil
}

func newRouter(tokens *jwt.Manager, auth *stubAuth, inv *stubInvitations) http.Handler {
	h := handler.NewAuthHandler(auth, inv, logger.Nop())
	r := chi.NewRouter()
	h.MountPublic(r, nil)
	r.Group(func(r chi.Router) {
		r.Use(handler.Middleware(tokens))
		h.Mount(r)
	})
	return r
}

func newTokens() *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{Secret: "s", AccessExpiry: time.Minute, RefreshExpiry: time.Hour, Issuer: "crewboard"})
}

func TestLogin(t *testing.T) {
	auth := &stubAuth{}
	router := newRouter(newTokens(), auth, &stubInvitations{})

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodPost, "/auth/login", map[string]string{"email": "ana@example.test", "password": "correct horse"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "ana@example.test", auth.login.Email)

	rr = testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodPost, "/auth/login", map[string]string{"email": "ana@example.test", "password": "nope"}))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email", "password": "x"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestMiddleware(t *testing.T) {
	tokens := newTokens()
	router := newRouter(tokens, &stubAuth{}, &stubInvitations{})
	a := &actor.Actor{ID: uuid.New(), OrganizationID: uuid.New(), Email: "ana@example.test", BaseRole: actor.RoleForeman}
	pair, err := tokens.GenerateTokenPair(a)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + pair.AccessToken, http.StatusOK},
		{"lowercase scheme", "bearer " + pair.AccessToken, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"basic", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := testutil.ExecuteRequest(router, req)
			testutil.AssertStatus(t, rr, tt.status)
			if tt.status == http.StatusOK {
				assert.Contains(t, rr.Body.String(), a.ID.String())
			}
		})
	}
}

func TestAcceptInvitation(t *testing.T) {
	inv := &stubInvitations{}
	router := newRouter(newTokens(), &stubAuth{}, inv)

	req := httptest.NewRequest(http.MethodPost, "/auth/invite/abc123/accept",
		strings.NewReader(`{"first_name":"Nia","last_name":"Lee","password":"long enough"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	assert.Equal(t, "abc123", inv.token)
}
