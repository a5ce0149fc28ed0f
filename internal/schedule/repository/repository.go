// Package repository persists scheduling data. Every method runs inside a
// caller-bound transaction, so row-level security decides what is visible
// and what may change.
package repository

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

// mapErr turns a missing row into NotFound(resource) and maps constraint and
// policy violations. Rows hidden by RLS are indistinguishable from missing.
func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	return database.MapError(err)
}

// affected returns NotFound(resource) when res touched no rows
func affected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

func pageDefaults(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage
}

func uuidArray(ids []uuid.UUID) interface{} {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}

func dateArray(days []domain.Date) interface{} {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return pq.Array(out)
}
