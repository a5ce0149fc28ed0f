package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// pathID parses a uuid URL parameter
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.BadRequest("invalid " + name)
	}
	return id, nil
}

// queryID parses an optional uuid query parameter
func queryID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.Validation(map[string]string{key: "must be a valid UUID"})
	}
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(r *http.Request, key string) (*domain.Date, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return nil, errors.Validation(map[string]string{key: "must be a date in YYYY-MM-DD format"})
	}
	d := domain.NewDate(t)
	return &d, nil
}

// requiredDate is queryDate for parameters that must be present
func requiredDate(r *http.Request, key string) (domain.Date, error) {
	d, err := queryDate(r, key)
	if err != nil {
		return domain.Date{}, err
	}
	if d == nil {
		return domain.Date{}, errors.Validation(map[string]string{key: "is required"})
	}
	return *d, nil
}

// selectedSite returns the job site chosen by header or query parameter
func selectedSite(r *http.Request) (uuid.UUID, error) {
	if id, ok := tenant.JobSiteID(r.Context()); ok {
		return id, nil
	}
	return uuid.Nil, errors.Validation(map[string]string{"job_site_id": "is required"})
}

// dateWindow reads from/to, defaulting to the week containing today
// through four weeks later.
func dateWindow(r *http.Request) (domain.Date, domain.Date, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	start := domain.NewDate(domain.WeekStart(domain.Today()))
	if from != nil {
		start = *from
	}
	end := domain.NewDate(start.AddDate(0, 0, 27))
	if to != nil {
		end = *to
	}
	return start, end, nil
}

func queryInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	return v, err == nil
}
