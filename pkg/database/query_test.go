package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	f := NewFilter("w.is_active")
	f.Add("w.job_site_id = ?", "site").
		Add("(w.first_name ILIKE ? OR w.last_name ILIKE ?)", "%a%", "%a%")
	limit := f.Arg(50)

	assert.Equal(t, "WHERE w.is_active AND w.job_site_id = $1 AND (w.first_name ILIKE $2 OR w.last_name ILIKE $3)", f.Where())
	assert.Equal(t, "$4", limit)
	assert.Equal(t, []interface{}{"site", "%a%", "%a%", 50}, f.Args())
}

func TestFilter_Empty(t *testing.T) {
	f := NewFilter()
	assert.Equal(t, "", f.Where())
	assert.Empty(t, f.Args())
}
