package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/i18n"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestError_LocalizesAppError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(i18n.WithLocale(req.Context(), i18n.LocaleSpanish))
	rec := httptest.NewRecorder()

	Error(rec, req, errors.NotFound("worker"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Trabajador no encontrado", resp.Error.Message)
}

func TestError_HidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	Error(rec, req, fmt.Errorf("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))

	err := DecodeJSON(req, &body)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.AsAppError(err).StatusCode)
}

func TestValidate_UsesJSONNamesAndDateTag(t *testing.T) {
	type request struct {
		Name      string `json:"name" validate:"required"`
		StartDate string `json:"start_date" validate:"required,date"`
		Operators int    `json:"required_operators" validate:"gte=0"`
	}

	err := Validate(i18n.WithLocale(httptest.NewRequest(http.MethodGet, "/", nil).Context(), i18n.LocaleEnglish),
		request{StartDate: "2024-13-01", Operators: -1})
	require.Error(t, err)

	details := errors.AsAppError(err).Details
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", details["start_date"])
	assert.Equal(t, "must be at least 0", details["required_operators"])
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil))
	assert.Equal(t, Pagination{Page: 3, PerPage: 200}, p)
	assert.Equal(t, 400, p.Offset())

	p = ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=-1&per_page=x", nil))
	assert.Equal(t, Pagination{Page: 1, PerPage: 50}, p)

	assert.Equal(t, &Meta{Page: 1, PerPage: 20, Total: 41, TotalPages: 3}, NewMeta(1, 20, 41))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
