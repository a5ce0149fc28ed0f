package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
)

func newHolidayService(e *env) *HolidayService {
	return NewHolidayService(e.holidays, e.sites, e.publisher, logger.Nop())
}

func TestLoadHolidayFile(t *testing.T) {
	doc := `
holidays:
  - date: 2025-12-25
    name: Christmas Day
    pay_rates: {default: 2.0, operator: 2.5}
  - date: "2025-01-01"
    name: New Year's Day
  - date: 2025-12-25
    name: Christmas
`
	items, err := LoadHolidayFile(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2025-01-01", items[0].HolidayDate.String())
	assert.Equal(t, repository.PayRates{}, items[0].PayRates)
	assert.Equal(t, "Christmas", items[1].Name)
	assert.True(t, items[1].IsGlobal())
}

func TestLoadHolidayFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty"},
		{"bad date", "holidays:\n  - date: 12/25/2025\n    name: X\n", "invalid date"},
		{"missing name", "holidays:\n  - date: 2025-12-25\n", "name is required"},
		{"unknown trade", "holidays:\n  - date: 2025-12-25\n    name: X\n    pay_rates: {plumber: 2}\n", "unknown trade"},
		{"zero multiplier", "holidays:\n  - date: 2025-12-25\n    name: X\n    pay_rates: {default: 0}\n", "multiplier"},
		{"unknown field", "holidays:\n  - date: 2025-12-25\n    name: X\n    paid: true\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadHolidayFile(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHolidayService_Manage(t *testing.T) {
	e := newEnv(t)
	svc := newHolidayService(e)
	admin := e.as("admin", "")

	h, err := svc.Create(admin, &HolidayRequest{HolidayDate: "2024-07-04", Name: " Independence Day ", PayRates: map[string]float64{"default": 1.5}})
	require.NoError(t, err)
	require.NotNil(t, h.OrganizationID)
	assert.Equal(t, e.org, *h.OrganizationID)
	assert.Equal(t, "Independence Day", h.Name)
	e.events.AssertEventPublished(t, messaging.EventHolidayChanged)

	_, err = svc.Create(e.as("superintendent", "superintendent"), &HolidayRequest{HolidayDate: "2024-07-05", Name: "Bridge"})
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Create(admin, &HolidayRequest{HolidayDate: "2024-07-05", Name: "Bridge", PayRates: map[string]float64{"welder": 2}})
	requireStatus(t, err, http.StatusBadRequest)

	updated, err := svc.Update(admin, h.ID, &HolidayRequest{HolidayDate: "2024-07-05", Name: "Observed"})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-05", updated.HolidayDate.String())

	require.NoError(t, svc.Delete(admin, h.ID))
	assert.Empty(t, e.holidays.items)
}

func TestHolidayService_GlobalIsReadOnly(t *testing.T) {
	e := newEnv(t)
	global := &repository.Holiday{ID: uuid.New(), HolidayDate: domain.MustDate("2024-12-25"), Name: "Christmas"}
	e.holidays.items = []*repository.Holiday{global}
	svc := newHolidayService(e)
	admin := e.as("admin", "")

	_, err := svc.Update(admin, global.ID, &HolidayRequest{HolidayDate: "2024-12-25", Name: "Xmas"})
	requireStatus(t, err, http.StatusForbidden)
	requireStatus(t, svc.Delete(admin, global.ID), http.StatusForbidden)

	items, err := svc.Year(e.as("worker", ""), 2024)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Year(admin, 10)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestHolidayService_SeedGlobal(t *testing.T) {
	e := newEnv(t)
	svc := newHolidayService(e)
	items := []*repository.Holiday{{HolidayDate: domain.MustDate("2025-01-01"), Name: "New Year"}}

	n, err := svc.SeedGlobal(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotNil(t, e.holidays.seedAs)
	assert.True(t, e.holidays.seedAs.IsSystem())
}
