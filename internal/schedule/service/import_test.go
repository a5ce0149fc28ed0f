package service

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
)

func TestParseImportDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{" 2024-03-15 ", "2024-03-15", true},
		{"3/15/2024", "2024-03-15", true},
		{"03/05/2024", "2024-03-05", true},
		{"3/15/24", "2024-03-15", true},
		{"45366", "2024-03-15", true},
		{"45366.5", "2024-03-15", true},
		{"15.03.2024", "", false},
		{"tomorrow", "", false},
		{"0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImportDate(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "start_date", normalizeHeader("  Start Date "))
	assert.Equal(t, "required_operators", normalizeHeader("Required-Operators"))
	assert.Equal(t, "task_name", normalizeHeader("\ufeffTask  Name"))
	assert.Equal(t, "masons", normalizeHeader("MASONS"))
}

func TestParseTaskFile_CSV(t *testing.T) {
	data := "Task Name,Start,End Date,Operators,Laborers,Saturday,Color\n" +
		"Excavation,2024-01-02,1/12/2024,1,3,yes,ff0000\n" +
		",,,,,,\n" +
		"Backfill,45306,45310,,2,no,\n"

	rows, err := ParseTaskFile("tasks.csv", []byte(data), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Empty(t, first.Errors)
	assert.Equal(t, "Excavation", first.Request.Name)
	assert.Equal(t, "2024-01-02", first.Request.StartDate)
	assert.Equal(t, "2024-01-12", first.Request.EndDate)
	assert.Equal(t, 1, first.Request.RequiredOperators)
	assert.Equal(t, 3, first.Request.RequiredLaborers)
	assert.True(t, first.Request.IncludeSaturday)
	assert.Equal(t, "#ff0000", first.Request.Color)

	second := rows[1]
	assert.Equal(t, 4, second.Line)
	assert.Empty(t, second.Errors)
	assert.Equal(t, "2024-01-15", second.Request.StartDate)
	assert.Equal(t, "2024-01-19", second.Request.EndDate)
}

func TestParseTaskFile_SemicolonCSV(t *testing.T) {
	data := "name;start_date;end_date\nCuring;2024-02-01;2024-02-03\n"
	rows, err := ParseTaskFile("export.csv", []byte(data), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Curing", rows[0].Request.Name)
}

func TestParseTaskFile_RowErrors(t *testing.T) {
	data := "name,start_date,end_date,masons,holidays\n" +
		"Bad,soon,2024-01-05,-1,maybe\n"

	rows, err := ParseTaskFile("tasks.csv", []byte(data), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	fields := map[string]bool{}
	for _, e := range rows[0].Errors {
		assert.Equal(t, 2, e.Row)
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{"start_date": true, "required_masons": true, "include_holidays": true}, fields)
}

func TestParseTaskFile_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		max  int
		want string
	}{
		{"empty", "\n\n", 10, "empty"},
		{"missing columns", "name,start\nA,2024-01-01\n", 10, "end_date"},
		{"no data", "name,start_date,end_date\n", 10, "no data rows"},
		{"too many rows", "name,start_date,end_date\nA,2024-01-01,2024-01-02\nB,2024-01-01,2024-01-02\n", 1, "more than 1 rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskFile("tasks.csv", []byte(tt.data), tt.max)
			requireStatus(t, err, http.StatusBadRequest)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTaskFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Start Date", "End Date", "Carpenters"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Formwork", 45293, "2024-01-10", 4}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseTaskFile("upload.bin", buf.Bytes(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Errors)
	assert.Equal(t, "Formwork", rows[0].Request.Name)
	assert.Equal(t, "2024-01-02", rows[0].Request.StartDate)
	assert.Equal(t, "2024-01-10", rows[0].Request.EndDate)
	assert.Equal(t, 4, rows[0].Request.RequiredCarpenters)
}

func TestTaskService_Import(t *testing.T) {
	t.Run("creates every row", func(t *testing.T) {
		e := newEnv(t)
		svc := newTaskService(e)
		data := "name,start_date,end_date\nA,2024-01-01,2024-01-05\nB,2024-01-08,2024-01-12\n"

		res, err := svc.Import(e.as("engineer", "engineer"), &e.site, "tasks.csv", strings.NewReader(data))
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Created, 2)
		assert.Len(t, e.tasks.created, 2)
		e.events.AssertEventPublished(t, messaging.EventTaskImported)
	})

	t.Run("one bad row inserts nothing", func(t *testing.T) {
		e := newEnv(t)
		svc := newTaskService(e)
		data := "name,start_date,end_date\nA,2024-01-01,2024-01-05\nB,2024-01-12,2024-01-08\n"

		res, err := svc.Import(e.as("admin", ""), &e.site, "tasks.csv", strings.NewReader(data))
		require.NoError(t, err)
		assert.False(t, res.OK())
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 3, res.Errors[0].Row)
		assert.Equal(t, "end_date", res.Errors[0].Field)
		assert.Empty(t, res.Created)
		assert.Empty(t, e.tasks.created)
		e.events.AssertNoEventsPublished(t)
	})

	t.Run("database rejection is reported on its row", func(t *testing.T) {
		e := newEnv(t)
		svc := newTaskService(e)
		e.tasks.createErr = errors.BadRequest("invalid reference")
		e.tasks.failAt = 1
		data := "name,start_date,end_date\nA,2024-01-01,2024-01-05\nB,2024-01-08,2024-01-12\n"

		res, err := svc.Import(e.as("admin", ""), &e.site, "tasks.csv", strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 3, res.Errors[0].Row)
		assert.Empty(t, res.Created)
	})

	t.Run("oversized file", func(t *testing.T) {
		e := newEnv(t)
		e.cfg.MaxImportBytes = 10
		svc := newTaskService(e)

		_, err := svc.Import(e.as("admin", ""), &e.site, "tasks.csv", strings.NewReader(strings.Repeat("x", 11)))
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("worker cannot import", func(t *testing.T) {
		e := newEnv(t)
		_, err := newTaskService(e).Import(e.as("worker", "worker"), &e.site, "tasks.csv", strings.NewReader(""))
		requireStatus(t, err, http.StatusForbidden)
	})
}
