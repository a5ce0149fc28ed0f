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

// HolidayService is the holiday calendar API used by HolidayHandler
type HolidayService interface {
	List(ctx context.Context, from, to domain.Date) ([]*repository.Holiday, error)
	Year(ctx context.Context, year int) ([]*repository.Holiday, error)
	Create(ctx context.Context, req *service.HolidayRequest) (*repository.Holiday, error)
	Update(ctx context.Context, id uuid.UUID, req *service.HolidayRequest) (*repository.Holiday, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HolidayHandler handles holiday endpoints
type HolidayHandler struct {
	service HolidayService
	logger  *logger.Logger
}

// NewHolidayHandler creates a new holiday handler
func NewHolidayHandler(svc HolidayService, log *logger.Logger) *HolidayHandler {
	return &HolidayHandler{service: svc, logger: log}
}

// List returns the holidays of a year (?year=) or a range (?from=&to=).
// Without parameters it returns the current year.
func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		holidays []*repository.Holiday
		err      error
	)
	switch {
	case r.URL.Query().Has("from") || r.URL.Query().Has("to"):
		var from, to domain.Date
		if from, err = requiredDate(r, "from"); err == nil {
			if to, err = requiredDate(r, "to"); err == nil {
				holidays, err = h.service.List(r.Context(), from, to)
			}
		}
	case r.URL.Query().Has("year"):
		year, ok := queryInt(r, "year")
		if !ok {
			err = errors.Validation(map[string]string{"year": "is invalid"})
			break
		}
		holidays, err = h.service.Year(r.Context(), year)
	default:
		holidays, err = h.service.Year(r.Context(), domain.Today().Year())
	}
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, holidays)
}

// Create adds an organization holiday
func (h *HolidayHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.HolidayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	holiday, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, holiday)
}

// Update changes an organization holiday
func (h *HolidayHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req service.HolidayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	holiday, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, holiday)
}

// Delete removes an organization holiday
func (h *HolidayHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
