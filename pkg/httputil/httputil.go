package httputil

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Page       int   `json:"page,omitempty"`
	PerPage    int   `json:"per_page,omitempty"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// NewMeta builds pagination metadata for a page of total rows.
func NewMeta(page, perPage int, total int64) *Meta {
	pages := 0
	if perPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return &Meta{Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	JSONWithMeta(w, statusCode, data, nil)
}

// JSONWithMeta sends a JSON response with metadata
func JSONWithMeta(w http.ResponseWriter, statusCode int, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
		Meta:    meta,
	})
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes err as a localized error envelope. Non-AppErrors become 500s
// and are logged with the request logger; their text never reaches the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.AsAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), fallbackLogger).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	_ = json.NewEncoder(w).Encode(Response{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Localize(r.Context()),
			Details: appErr.Details,
		},
	})
}

var fallbackLogger = logger.Nop()

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.BadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// Download writes a file attachment.
func Download(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Pagination holds page/per_page query parameters.
type Pagination struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePagination reads page and per_page, defaulting to 1 and 50 and
// capping per_page at 200.
func ParsePagination(r *http.Request) Pagination {
	p := Pagination{Page: 1, PerPage: 50}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, 200)
	}
	return p
}

// QueryBool parses a boolean query parameter; absent or malformed is def.
func QueryBool(r *http.Request, key string, def bool) bool {
	if v, err := strconv.ParseBool(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}
