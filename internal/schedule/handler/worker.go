package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// WorkerService is the worker roster API used by WorkerHandler
type WorkerService interface {
	List(ctx context.Context, params repository.WorkerListParams) ([]*repository.Worker, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Worker, error)
	Create(ctx context.Context, req *service.WorkerRequest) (*repository.Worker, error)
	Update(ctx context.Context, id uuid.UUID, req *service.WorkerRequest) (*repository.Worker, error)
	Delete(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error)
}

// WorkerHandler handles worker roster endpoints
type WorkerHandler struct {
	service WorkerService
	logger  *logger.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(svc WorkerService, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{service: svc, logger: log}
}

// List lists workers. Filters: role, active, unassigned, search, page, per_page.
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePagination(r)
	params := repository.WorkerListParams{
		Unassigned: httputil.QueryBool(r, "unassigned", false),
		Search:     r.URL.Query().Get("search"),
		Page:       page.Page,
		PerPage:    page.PerPage,
	}
	if role := r.URL.Query().Get("role"); role != "" {
		wr := domain.WorkerRole(role)
		if !wr.Valid() {
			httputil.Error(w, r, errors.Validation(map[string]string{"role": "must be one of: operator laborer carpenter mason"}))
			return
		}
		params.Role = &wr
	}
	if r.URL.Query().Has("active") {
		active := httputil.QueryBool(r, "active", true)
		params.Active = &active
	}

	workers, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, workers, httputil.NewMeta(page.Page, page.PerPage, total))
}

// Get gets a worker by ID
func (h *WorkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	worker, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, worker)
}

// Create adds a worker to the roster
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.WorkerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	worker, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, worker)
}

// Update replaces a worker's details
func (h *WorkerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.WorkerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	worker, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, worker)
}

// Delete removes a worker, or deactivates one that has history
func (h *WorkerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	result, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
