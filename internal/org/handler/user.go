package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/org/service"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// UserService is the user profile API used by UserHandler
type UserService interface {
	List(ctx context.Context, params repository.UserListParams) ([]*repository.UserProfile, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, req *service.UpdateUserRequest) (*repository.UserProfile, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// UserHandler handles user profile endpoints
type UserHandler struct {
	service UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: log}
}

// List lists users. Filters: role, active, search, page, per_page.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePagination(r)
	params := repository.UserListParams{
		BaseRole: r.URL.Query().Get("role"),
		Search:   r.URL.Query().Get("search"),
		Page:     page.Page,
		PerPage:  page.PerPage,
	}
	if r.URL.Query().Has("active") {
		active := httputil.QueryBool(r, "active", true)
		params.Active = &active
	}

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, users, httputil.NewMeta(page.Page, page.PerPage, total))
}

// Get gets a user by ID
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// Update updates a user profile
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// Deactivate disables a user
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
