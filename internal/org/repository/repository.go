// Package repository persists organizations, job sites, user profiles and
// site assignments through caller-bound transactions.
package repository

import (
	"database/sql"

	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	return database.MapError(err)
}

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
