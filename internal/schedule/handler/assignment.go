package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// AssignmentService is the assignment API used by AssignmentHandler
type AssignmentService interface {
	Assign(ctx context.Context, req *service.AssignRequest) (*service.AssignResult, error)
	Unassign(ctx context.Context, id uuid.UUID) error
	UnassignRange(ctx context.Context, req *service.UnassignRequest) (int64, error)
	List(ctx context.Context, params repository.AssignmentListParams) ([]*repository.Assignment, error)
}

// AssignmentHandler handles worker-to-task assignment endpoints
type AssignmentHandler struct {
	service AssignmentService
	logger  *logger.Logger
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(svc AssignmentService, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{service: svc, logger: log}
}

// List lists assignment days. Filters: task_id, worker_id, from, to.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var params repository.AssignmentListParams
	var err error
	if params.TaskID, err = queryID(r, "task_id"); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if params.WorkerID, err = queryID(r, "worker_id"); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if params.From, err = queryDate(r, "from"); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if params.To, err = queryDate(r, "to"); err != nil {
		httputil.Error(w, r, err)
		return
	}

	assignments, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, assignments)
}

// Assign books a worker on every working day of a task within from/to
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req service.AssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	req.ShowSaturday = req.ShowSaturday || httputil.QueryBool(r, "show_saturday", false)
	req.ShowSunday = req.ShowSunday || httputil.QueryBool(r, "show_sunday", false)

	result, err := h.service.Assign(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, result)
}

// Delete removes a single assignment day
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.Unassign(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// UnassignRange removes a worker from a task over a date range
func (h *AssignmentHandler) UnassignRange(w http.ResponseWriter, r *http.Request) {
	var req service.UnassignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	removed, err := h.service.UnassignRange(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
