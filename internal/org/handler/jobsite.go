package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/org/service"
	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// JobSiteService is the job site API used by JobSiteHandler
type JobSiteService interface {
	List(ctx context.Context, params repository.JobSiteListParams) ([]*repository.JobSite, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.JobSite, error)
	Create(ctx context.Context, req *service.JobSiteRequest) (*repository.JobSite, error)
	Update(ctx context.Context, id uuid.UUID, req *service.JobSiteRequest) (*repository.JobSite, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobSiteHandler handles job site endpoints
type JobSiteHandler struct {
	service JobSiteService
	logger  *logger.Logger
}

// NewJobSiteHandler creates a new job site handler
func NewJobSiteHandler(svc JobSiteService, log *logger.Logger) *JobSiteHandler {
	return &JobSiteHandler{service: svc, logger: log}
}

// List lists visible job sites. Filters: status, search, page, per_page.
func (h *JobSiteHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePagination(r)
	params := repository.JobSiteListParams{
		Search:  r.URL.Query().Get("search"),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		st := domain.SiteStatus(status)
		params.Status = &st
	}

	sites, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, sites, httputil.NewMeta(page.Page, page.PerPage, total))
}

// Get gets a job site by ID
func (h *JobSiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	site, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, site)
}

// Create creates a job site
func (h *JobSiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.JobSiteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	site, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, site)
}

// Update replaces a job site's details
func (h *JobSiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.JobSiteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	site, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, site)
}

// Delete deletes a job site and everything scheduled on it
func (h *JobSiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
