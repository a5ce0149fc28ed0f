package handler

import (
	"context"
	"net/http"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// CalendarService builds calendar data
type CalendarService interface {
	Calendar(ctx context.Context, q service.CalendarQuery) (*service.Calendar, error)
}

// ScheduleExporter renders the schedule print view
type ScheduleExporter interface {
	SchedulePDF(ctx context.Context, q service.CalendarQuery) (*service.ExportFile, error)
}

// CalendarHandler handles the calendar and Gantt endpoints
type CalendarHandler struct {
	service  CalendarService
	exporter ScheduleExporter
	logger   *logger.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(svc CalendarService, exporter ScheduleExporter, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{service: svc, exporter: exporter, logger: log}
}

func calendarQuery(r *http.Request) (service.CalendarQuery, error) {
	site, err := selectedSite(r)
	if err != nil {
		return service.CalendarQuery{}, err
	}
	from, to, err := dateWindow(r)
	if err != nil {
		return service.CalendarQuery{}, err
	}
	return service.CalendarQuery{
		JobSiteID: site,
		From:      from,
		To:        to,
		View: domain.ViewOptions{
			ShowSaturday: httputil.QueryBool(r, "show_saturday", false),
			ShowSunday:   httputil.QueryBool(r, "show_sunday", false),
		},
	}, nil
}

// Get returns the calendar of the selected job site.
// Query: from, to, show_saturday, show_sunday.
func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := calendarQuery(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	cal, err := h.service.Calendar(r.Context(), q)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cal)
}

// ExportPDF downloads the calendar as a printable PDF
func (h *CalendarHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	q, err := calendarQuery(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	file, err := h.exporter.SchedulePDF(r.Context(), q)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Download(w, file.ContentType, file.Name, file.Body)
}
