package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// HolidayService manages global and organization holidays
type HolidayService struct {
	guard
	holidays  HolidayStore
	publisher *events.SchedulePublisher
	logger    *logger.Logger
}

// NewHolidayService creates a new holiday service
func NewHolidayService(
	holidays HolidayStore,
	sites SiteDirectory,
	publisher *events.SchedulePublisher,
	log *logger.Logger,
) *HolidayService {
	return &HolidayService{
		guard:     guard{sites: sites},
		holidays:  holidays,
		publisher: publisher,
		logger:    log,
	}
}

// HolidayRequest is the body of create and update holiday requests
type HolidayRequest struct {
	HolidayDate string             `json:"holiday_date" validate:"required,date"`
	Name        string             `json:"name" validate:"required,max=200"`
	PayRates    map[string]float64 `json:"pay_rates"`
}

// List returns the holidays within [from, to]
func (s *HolidayService) List(ctx context.Context, from, to domain.Date) ([]*repository.Holiday, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	if to.Before(from.Time) {
		return nil, errors.Validation(map[string]string{"to": "must not be before from"})
	}
	return s.holidays.List(ctx, from, to)
}

// Year returns the holidays of a calendar year
func (s *HolidayService) Year(ctx context.Context, year int) ([]*repository.Holiday, error) {
	if year < 1900 || year > 2200 {
		return nil, errors.Validation(map[string]string{"year": "must be between 1900 and 2200"})
	}
	from := domain.MustDate(fmt.Sprintf("%04d-01-01", year))
	to := domain.MustDate(fmt.Sprintf("%04d-12-31", year))
	return s.List(ctx, from, to)
}

// Create adds an organization holiday
func (s *HolidayService) Create(ctx context.Context, req *HolidayRequest) (*repository.Holiday, error) {
	a, err := s.require(ctx, nil, permissions.HolidaysManage)
	if err != nil {
		return nil, err
	}
	org := a.OrganizationID
	h := &repository.Holiday{OrganizationID: &org}
	if err := applyHoliday(h, req); err != nil {
		return nil, err
	}
	if err := s.holidays.Create(ctx, h); err != nil {
		return nil, err
	}

	s.publisher.HolidayChanged(ctx, h)
	s.logger.Info().
		Str("holiday_id", h.ID.String()).
		Str("date", h.HolidayDate.String()).
		Msg("holiday created")
	return h, nil
}

// Update edits an organization holiday. Global holidays are read-only.
func (s *HolidayService) Update(ctx context.Context, id uuid.UUID, req *HolidayRequest) (*repository.Holiday, error) {
	if _, err := s.require(ctx, nil, permissions.HolidaysManage); err != nil {
		return nil, err
	}
	h, err := s.holidays.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.IsGlobal() {
		return nil, errors.Forbidden("global holidays cannot be changed")
	}
	if err := applyHoliday(h, req); err != nil {
		return nil, err
	}
	if err := s.holidays.Update(ctx, h); err != nil {
		return nil, err
	}

	s.publisher.HolidayChanged(ctx, h)
	return h, nil
}

// Delete removes an organization holiday
func (s *HolidayService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.require(ctx, nil, permissions.HolidaysManage); err != nil {
		return err
	}
	h, err := s.holidays.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if h.IsGlobal() {
		return errors.Forbidden("global holidays cannot be changed")
	}
	if err := s.holidays.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.HolidayChanged(ctx, h)
	return nil
}

// SeedGlobal upserts global holidays as the system actor
func (s *HolidayService) SeedGlobal(ctx context.Context, items []*repository.Holiday) (int, error) {
	ctx = actor.WithActor(ctx, actor.SystemActor())
	n, err := s.holidays.UpsertGlobal(ctx, items)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("count", n).Msg("global holidays seeded")
	return n, nil
}

// holidayFile is the YAML layout of a global holiday calendar:
//
//	holidays:
//	  - date: 2025-12-25
//	    name: Christmas Day
//	    pay_rates: {default: 2.0, operator: 2.5}
type holidayFile struct {
	Holidays []struct {
		Date     string             `yaml:"date"`
		Name     string             `yaml:"name"`
		PayRates map[string]float64 `yaml:"pay_rates"`
	} `yaml:"holidays"`
}

// LoadHolidayFile parses a YAML holiday calendar. Duplicate dates keep the
// last entry.
func LoadHolidayFile(r io.Reader) ([]*repository.Holiday, error) {
	var file holidayFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("holiday file is empty")
		}
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	byDate := make(map[string]*repository.Holiday, len(file.Holidays))
	for i, item := range file.Holidays {
		d, err := domain.ParseDate(strings.TrimSpace(item.Date))
		if err != nil {
			return nil, fmt.Errorf("holiday %d: %w", i+1, err)
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("holiday %d (%s): name is required", i+1, item.Date)
		}
		if err := checkPayRates(item.PayRates); err != nil {
			return nil, fmt.Errorf("holiday %d (%s): %w", i+1, item.Date, err)
		}
		rates := repository.PayRates(item.PayRates)
		if rates == nil {
			rates = repository.PayRates{}
		}
		byDate[domain.FormatDate(d)] = &repository.Holiday{
			HolidayDate: domain.NewDate(d),
			Name:        name,
			PayRates:    rates,
		}
	}

	out := make([]*repository.Holiday, 0, len(byDate))
	for _, h := range byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HolidayDate.Before(out[j].HolidayDate.Time) })
	return out, nil
}

func applyHoliday(h *repository.Holiday, req *HolidayRequest) error {
	d, err := domain.ParseDate(req.HolidayDate)
	if err != nil {
		return errors.Validation(map[string]string{"holiday_date": err.Error()})
	}
	if err := checkPayRates(req.PayRates); err != nil {
		return errors.Validation(map[string]string{"pay_rates": err.Error()})
	}
	h.HolidayDate = domain.NewDate(d)
	h.Name = strings.TrimSpace(req.Name)
	h.PayRates = repository.PayRates(req.PayRates)
	if h.PayRates == nil {
		h.PayRates = repository.PayRates{}
	}
	return nil
}

// checkPayRates accepts trade names or "default" with multipliers in (0, 10]
func checkPayRates(rates map[string]float64) error {
	for k, v := range rates {
		if k != "default" && !domain.WorkerRole(k).Valid() {
			return fmt.Errorf("unknown trade %q", k)
		}
		if v <= 0 || v > 10 {
			return fmt.Errorf("multiplier for %q must be in (0, 10]", k)
		}
	}
	return nil
}
