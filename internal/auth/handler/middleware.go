package handler

import (
	"net/http"
	"strings"

	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// Middleware validates the bearer token and puts the caller in the request
// context. Missing or invalid tokens get 401.
func Middleware(tokens *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r)
			if err != nil {
				httputil.Error(w, r, err)
				return
			}

			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				httputil.Error(w, r, err)
				return
			}
			a, err := claims.Actor()
			if err != nil {
				httputil.Error(w, r, err)
				return
			}

			ctx := actor.WithActor(r.Context(), a)
			ctx = tenant.WithOrganization(ctx, a.OrganizationID)
			httputil.RecordActor(ctx, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.Unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.Unauthorized("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}
