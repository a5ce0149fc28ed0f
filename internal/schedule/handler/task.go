package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// TaskService is the task API used by TaskHandler
type TaskService interface {
	List(ctx context.Context, params repository.TaskListParams) ([]*repository.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Task, error)
	Create(ctx context.Context, req *service.TaskRequest) (*repository.Task, error)
	Update(ctx context.Context, id uuid.UUID, req *service.TaskRequest) (*repository.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Import(ctx context.Context, siteID *uuid.UUID, filename string, r io.Reader) (*service.ImportResult, error)
	AddAttachment(ctx context.Context, taskID uuid.UUID, req *service.AttachmentRequest) (*repository.Attachment, error)
	ListAttachments(ctx context.Context, taskID uuid.UUID) ([]*repository.Attachment, error)
	DeleteAttachment(ctx context.Context, taskID, id uuid.UUID) (*repository.Attachment, error)
}

// TaskHandler handles task endpoints
type TaskHandler struct {
	service  TaskService
	maxBytes int64
	logger   *logger.Logger
}

// NewTaskHandler creates a new task handler. maxUpload bounds the
// multipart body of an import.
func NewTaskHandler(svc TaskService, maxUpload int64, log *logger.Logger) *TaskHandler {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &TaskHandler{service: svc, maxBytes: maxUpload, logger: log}
}

// ============================================================================
// TASKS
// ============================================================================

// List lists tasks overlapping from/to
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	tasks, err := h.service.List(r.Context(), repository.TaskListParams{
		From:   from,
		To:     to,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tasks)
}

// Get gets a task by ID
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	task, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, task)
}

// Create creates a task
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.TaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	task, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, task)
}

// Update updates a task
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.TaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	task, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, task)
}

// Delete deletes a task and its assignments
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
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

// Import creates tasks on the selected job site from an uploaded CSV or
// XLSX file (form field "file").
// A file with row errors returns 422 with the per-row report and creates
// nothing.
func (h *TaskHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httputil.Error(w, r, errors.BadRequest("invalid multipart upload: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, r, errors.Validation(map[string]string{"file": "is required"}))
		return
	}
	defer file.Close()

	result, err := h.service.Import(r.Context(), nil, header.Filename, file)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if !result.OK() {
		httputil.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	httputil.Created(w, result)
}

// ============================================================================
// ATTACHMENTS
// ============================================================================

// ListAttachments lists a task's attachment metadata
func (h *TaskHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	attachments, err := h.service.ListAttachments(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, attachments)
}

// AddAttachment records attachment metadata for a task
func (h *TaskHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.AttachmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	attachment, err := h.service.AddAttachment(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, attachment)
}

// DeleteAttachment removes attachment metadata
func (h *TaskHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	attachmentID, err := pathID(r, "attachmentId")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if _, err := h.service.DeleteAttachment(r.Context(), id, attachmentID); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.NoContent(w)
}
