// Package handler exposes organization, job site, user and site
// assignment management over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/errors"
)

// Handlers groups the organization handlers for mounting
type Handlers struct {
	Organization    *OrganizationHandler
	JobSites        *JobSiteHandler
	Users           *UserHandler
	SiteAssignments *SiteAssignmentHandler
}

// Mount registers the organization routes on an authenticated router
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/org", h.Organization.Get)
	r.Put("/org", h.Organization.Rename)

	r.Route("/job-sites", func(r chi.Router) {
		r.Get("/", h.JobSites.List)
		r.Post("/", h.JobSites.Create)
		r.Get("/{id}", h.JobSites.Get)
		r.Put("/{id}", h.JobSites.Update)
		r.Delete("/{id}", h.JobSites.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.Users.List)
		r.Get("/{id}", h.Users.Get)
		r.Put("/{id}", h.Users.Update)
		r.Delete("/{id}", h.Users.Deactivate)
	})

	r.Route("/site-assignments", func(r chi.Router) {
		r.Get("/", h.SiteAssignments.List)
		r.Post("/", h.SiteAssignments.Create)
		r.Put("/{id}", h.SiteAssignments.Update)
		r.Post("/{id}/end", h.SiteAssignments.End)
	})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.BadRequest("invalid id")
	}
	return id, nil
}

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
