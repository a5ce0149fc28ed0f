package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// WorkerService handles crew member business logic
type WorkerService struct {
	guard
	tx        TxRunner
	workers   WorkerStore
	publisher *events.SchedulePublisher
	logger    *logger.Logger
}

// NewWorkerService creates a new worker service
func NewWorkerService(
	tx TxRunner,
	workers WorkerStore,
	sites SiteDirectory,
	publisher *events.SchedulePublisher,
	log *logger.Logger,
) *WorkerService {
	return &WorkerService{
		guard:     guard{sites: sites},
		tx:        tx,
		workers:   workers,
		publisher: publisher,
		logger:    log,
	}
}

// WorkerRequest is the body of create and update worker requests
type WorkerRequest struct {
	JobSiteID *uuid.UUID `json:"job_site_id"`
	FirstName string     `json:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" validate:"required,max=100"`
	Role      string     `json:"role" validate:"required,oneof=operator laborer carpenter mason"`
	Phone     string     `json:"phone" validate:"max=40"`
	Email     string     `json:"email" validate:"omitempty,email"`
	IsActive  *bool      `json:"is_active"`
}

// DeleteResult tells whether a delete removed the row or deactivated it
type DeleteResult struct {
	ID          uuid.UUID `json:"id"`
	Deactivated bool      `json:"deactivated"`
}

// List lists visible workers. Without an explicit site filter the selected
// job site applies.
func (s *WorkerService) List(ctx context.Context, params repository.WorkerListParams) ([]*repository.Worker, int64, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, 0, err
	}
	if params.JobSiteID == nil && !params.Unassigned {
		if site, ok := tenant.JobSiteID(ctx); ok {
			params.JobSiteID = &site
		}
	}
	params.Search = strings.TrimSpace(params.Search)
	return s.workers.List(ctx, params)
}

// GetByID gets a worker by ID
func (s *WorkerService) GetByID(ctx context.Context, id uuid.UUID) (*repository.Worker, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	return s.workers.GetByID(ctx, id)
}

// Create adds a worker. Unattached workers can only be created by admins.
func (s *WorkerService) Create(ctx context.Context, req *WorkerRequest) (*repository.Worker, error) {
	a, err := s.require(ctx, req.JobSiteID, permissions.WorkersWrite)
	if err != nil {
		return nil, err
	}
	if req.JobSiteID != nil {
		if _, err := s.sites.JobSiteName(ctx, *req.JobSiteID); err != nil {
			return nil, err
		}
	}

	w := &repository.Worker{
		OrganizationID: a.OrganizationID,
		IsActive:       true,
	}
	applyWorker(w, req)

	if err := s.workers.Create(ctx, w); err != nil {
		return nil, err
	}

	s.publisher.WorkerChanged(ctx, messaging.EventWorkerCreated, w)

	s.logger.Info().
		Str("worker_id", w.ID.String()).
		Str("role", string(w.Role)).
		Msg("worker created")

	return w, nil
}

// Update replaces a worker's fields. Moving a worker between sites needs
// workers.write on both.
func (s *WorkerService) Update(ctx context.Context, id uuid.UUID, req *WorkerRequest) (*repository.Worker, error) {
	w, err := s.workers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, w.JobSiteID, permissions.WorkersWrite); err != nil {
		return nil, err
	}
	if !sameSite(w.JobSiteID, req.JobSiteID) {
		if _, err := s.require(ctx, req.JobSiteID, permissions.WorkersWrite); err != nil {
			return nil, err
		}
	}

	applyWorker(w, req)
	if err := s.workers.Update(ctx, w); err != nil {
		return nil, err
	}

	s.publisher.WorkerChanged(ctx, messaging.EventWorkerUpdated, w)
	return w, nil
}

// Delete removes a worker with no assignment or hours history and
// deactivates one that has any.
func (s *WorkerService) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	w, err := s.workers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, w.JobSiteID, permissions.WorkersWrite); err != nil {
		return nil, err
	}

	// history check and removal share one transaction
	var history bool
	err = s.tx.WithActor(ctx, func(ctx context.Context) error {
		var err error
		if history, err = s.workers.HasHistory(ctx, id); err != nil {
			return err
		}
		if history {
			return s.workers.Deactivate(ctx, id)
		}
		return s.workers.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{ID: id, Deactivated: history}
	if history {
		w.IsActive = false
		s.publisher.WorkerChanged(ctx, messaging.EventWorkerUpdated, w)
	} else {
		s.publisher.WorkerChanged(ctx, messaging.EventWorkerDeleted, w)
	}

	s.logger.Info().
		Str("worker_id", id.String()).
		Bool("deactivated", history).
		Msg("worker deleted")

	return result, nil
}

func applyWorker(w *repository.Worker, req *WorkerRequest) {
	w.JobSiteID = req.JobSiteID
	w.FirstName = strings.TrimSpace(req.FirstName)
	w.LastName = strings.TrimSpace(req.LastName)
	w.Role = domain.WorkerRole(req.Role)
	w.Phone = strings.TrimSpace(req.Phone)
	w.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
}

func sameSite(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// workerSiteOK reports whether w may work on site: attached to it or to none
func workerSiteOK(w *repository.Worker, site uuid.UUID) bool {
	return w.JobSiteID == nil || *w.JobSiteID == site
}
