package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// HoursService is the daily hours API used by HoursHandler
type HoursService interface {
	Record(ctx context.Context, req *service.HoursRequest) (*repository.DailyHours, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, siteID *uuid.UUID, from, to domain.Date) ([]*repository.DailyHours, error)
	Weekly(ctx context.Context, siteID *uuid.UUID, weekOf domain.Date) (*service.WeeklyReport, error)
	Prefill(ctx context.Context, siteID *uuid.UUID, day domain.Date) ([]service.PrefillRow, error)
}

// HoursExporter renders weekly hours files
type HoursExporter interface {
	WeeklyHours(ctx context.Context, siteID *uuid.UUID, weekOf domain.Date, format string) (*service.ExportFile, error)
}

// HoursHandler handles daily hours endpoints
type HoursHandler struct {
	service  HoursService
	exporter HoursExporter
	logger   *logger.Logger
}

// NewHoursHandler creates a new hours handler
func NewHoursHandler(svc HoursService, exporter HoursExporter, log *logger.Logger) *HoursHandler {
	return &HoursHandler{service: svc, exporter: exporter, logger: log}
}

// List lists recorded hours of the selected site between from and to
func (h *HoursHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := requiredDate(r, "from")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	to, err := requiredDate(r, "to")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	entries, err := h.service.List(r.Context(), nil, from, to)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Record creates or replaces a worker-day entry
func (h *HoursHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req service.HoursRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	entry, err := h.service.Record(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Delete removes a worker-day entry
func (h *HoursHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func weekOf(r *http.Request) (domain.Date, error) {
	d, err := queryDate(r, "week_of")
	if err != nil {
		return domain.Date{}, err
	}
	if d == nil {
		return domain.NewDate(domain.Today()), nil
	}
	return *d, nil
}

// Weekly returns the weekly summary for the week containing week_of
func (h *HoursHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	week, err := weekOf(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	report, err := h.service.Weekly(r.Context(), nil, week)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// ExportWeekly downloads the weekly summary. Query: week_of, format
// (csv, xlsx or pdf; default csv).
func (h *HoursHandler) ExportWeekly(w http.ResponseWriter, r *http.Request) {
	week, err := weekOf(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatCSV
	}

	file, err := h.exporter.WeeklyHours(r.Context(), nil, week, format)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Download(w, file.ContentType, file.Name, file.Body)
}

// Prefill suggests entries for a day from the assignments
func (h *HoursHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	day, err := requiredDate(r, "date")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	rows, err := h.service.Prefill(r.Context(), nil, day)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}
