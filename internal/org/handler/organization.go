package handler

import (
	"context"
	"net/http"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/org/service"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// OrganizationService is the organization API used by OrganizationHandler
type OrganizationService interface {
	Current(ctx context.Context) (*repository.Organization, error)
	Rename(ctx context.Context, req *service.RenameRequest) (*repository.Organization, error)
}

// OrganizationHandler handles the caller's organization
type OrganizationHandler struct {
	service OrganizationService
	logger  *logger.Logger
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(svc OrganizationService, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{service: svc, logger: log}
}

// Get returns the caller's organization
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Current(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, org)
}

// Rename renames the caller's organization
func (h *OrganizationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req service.RenameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	org, err := h.service.Rename(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, org)
}
