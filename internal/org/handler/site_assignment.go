package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/org/service"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// SiteAssignmentService is the site role API used by SiteAssignmentHandler
type SiteAssignmentService interface {
	List(ctx context.Context, params repository.SiteAssignmentListParams) ([]*repository.SiteAssignment, error)
	Create(ctx context.Context, req *service.SiteAssignmentRequest) (*repository.SiteAssignment, error)
	Update(ctx context.Context, id uuid.UUID, req *service.SiteAssignmentRequest) (*repository.SiteAssignment, error)
	End(ctx context.Context, id uuid.UUID) (*repository.SiteAssignment, error)
}

// SiteAssignmentHandler handles user-to-site role bindings
type SiteAssignmentHandler struct {
	service SiteAssignmentService
	logger  *logger.Logger
}

// NewSiteAssignmentHandler creates a new site assignment handler
func NewSiteAssignmentHandler(svc SiteAssignmentService, log *logger.Logger) *SiteAssignmentHandler {
	return &SiteAssignmentHandler{service: svc, logger: log}
}

// List lists site assignments. Filters: job_site_id, user_id, active_only.
func (h *SiteAssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryID(r, "job_site_id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	userID, err := queryID(r, "user_id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if siteID == nil && userID == nil {
		httputil.Error(w, r, errors.Validation(map[string]string{"job_site_id": "job_site_id or user_id is required"}))
		return
	}

	items, err := h.service.List(r.Context(), repository.SiteAssignmentListParams{
		JobSiteID:  siteID,
		UserID:     userID,
		ActiveOnly: httputil.QueryBool(r, "active_only", false),
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, items)
}

// Create binds a user to a job site
func (h *SiteAssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.SiteAssignmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, item)
}

// Update changes a site assignment
func (h *SiteAssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.SiteAssignmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	item, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

// End ends a site assignment as of today
func (h *SiteAssignmentHandler) End(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	item, err := h.service.End(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}
