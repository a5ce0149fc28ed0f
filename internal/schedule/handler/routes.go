// Package handler exposes the scheduling services over HTTP.
package handler

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups the scheduling handlers for mounting
type Handlers struct {
	Workers     *WorkerHandler
	Tasks       *TaskHandler
	Assignments *AssignmentHandler
	Calendar    *CalendarHandler
	Hours       *HoursHandler
	Holidays    *HolidayHandler
}

// Mount registers the scheduling routes on an authenticated router
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.Get("/", h.Workers.List)
		r.Post("/", h.Workers.Create)
		r.Get("/{id}", h.Workers.Get)
		r.Put("/{id}", h.Workers.Update)
		r.Delete("/{id}", h.Workers.Delete)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.Tasks.List)
		r.Post("/", h.Tasks.Create)
		r.Post("/import", h.Tasks.Import)
		r.Get("/{id}", h.Tasks.Get)
		r.Put("/{id}", h.Tasks.Update)
		r.Delete("/{id}", h.Tasks.Delete)
		r.Get("/{id}/attachments", h.Tasks.ListAttachments)
		r.Post("/{id}/attachments", h.Tasks.AddAttachment)
		r.Delete("/{id}/attachments/{attachmentId}", h.Tasks.DeleteAttachment)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", h.Assignments.List)
		r.Post("/", h.Assignments.Assign)
		r.Post("/unassign", h.Assignments.UnassignRange)
		r.Delete("/{id}", h.Assignments.Delete)
	})

	r.Get("/calendar", h.Calendar.Get)
	r.Get("/calendar/export", h.Calendar.ExportPDF)

	r.Route("/hours", func(r chi.Router) {
		r.Get("/", h.Hours.List)
		r.Put("/", h.Hours.Record)
		r.Get("/weekly", h.Hours.Weekly)
		r.Get("/weekly/export", h.Hours.ExportWeekly)
		r.Get("/prefill", h.Hours.Prefill)
		r.Delete("/{id}", h.Hours.Delete)
	})

	r.Route("/holidays", func(r chi.Router) {
		r.Get("/", h.Holidays.List)
		r.Post("/", h.Holidays.Create)
		r.Put("/{id}", h.Holidays.Update)
		r.Delete("/{id}", h.Holidays.Delete)
	})
}
