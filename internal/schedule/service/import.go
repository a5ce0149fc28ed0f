package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// ImportRowError is one problem found in an import file. Row is the
// 1-based line of the file, header included.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult reports a bulk task import. Either every row was created or
// none was and Errors explains why.
type ImportResult struct {
	Total   int                `json:"total"`
	Created []*repository.Task `json:"created"`
	Errors  []ImportRowError   `json:"errors"`
}

// OK reports whether the import created its rows
func (r *ImportResult) OK() bool {
	return len(r.Errors) == 0
}

// ImportRow is one parsed data row
type ImportRow struct {
	Line    int
	Request TaskRequest
	Errors  []ImportRowError
}

// import column names after normalization, with accepted aliases
var importColumns = map[string]string{
	"name":                "name",
	"task":                "name",
	"task_name":           "name",
	"description":         "description",
	"notes":               "description",
	"start_date":          "start_date",
	"start":               "start_date",
	"end_date":            "end_date",
	"end":                 "end_date",
	"required_operators":  "required_operators",
	"operators":           "required_operators",
	"required_laborers":   "required_laborers",
	"laborers":            "required_laborers",
	"required_carpenters": "required_carpenters",
	"carpenters":          "required_carpenters",
	"required_masons":     "required_masons",
	"masons":              "required_masons",
	"include_saturday":    "include_saturday",
	"saturday":            "include_saturday",
	"include_sunday":      "include_sunday",
	"sunday":              "include_sunday",
	"include_holidays":    "include_holidays",
	"holidays":            "include_holidays",
	"color":               "color",
}

var requiredColumns = []string{"name", "start_date", "end_date"}

// Import creates tasks on a job site from a CSV or XLSX file. Rows are
// validated first; when any row fails nothing is inserted.
func (s *TaskService) Import(ctx context.Context, siteID *uuid.UUID, filename string, r io.Reader) (*ImportResult, error) {
	site, err := s.siteOf(ctx, siteID)
	if err != nil {
		return nil, err
	}
	a, err := s.require(ctx, &site, permissions.TasksWrite)
	if err != nil {
		return nil, err
	}
	if _, err := s.sites.JobSiteName(ctx, site); err != nil {
		return nil, err
	}

	limit := s.cfg.MaxImportBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.BadRequest("failed to read import file")
	}
	if int64(len(data)) > limit {
		return nil, errors.BadRequest(fmt.Sprintf("import file exceeds %d bytes", limit))
	}

	rows, err := ParseTaskFile(filename, data, s.cfg.MaxImportRows)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows), Created: []*repository.Task{}, Errors: []ImportRowError{}}
	tasks := make([]*repository.Task, 0, len(rows))
	lines := make([]int, 0, len(rows))
	for _, row := range rows {
		result.Errors = append(result.Errors, row.Errors...)
		if len(row.Errors) > 0 {
			continue
		}
		task := &repository.Task{
			OrganizationID: a.OrganizationID,
			JobSiteID:      site,
			CreatedBy:      a.IDOrNil(),
		}
		if problems := applyTask(task, &row.Request); problems != nil {
			result.Errors = append(result.Errors, fieldErrors(row.Line, problems)...)
			continue
		}
		tasks = append(tasks, task)
		lines = append(lines, row.Line)
	}
	if !result.OK() {
		return result, nil
	}

	failed, err := s.tasks.CreateMany(ctx, tasks)
	if err != nil {
		appErr := errors.AsAppError(err)
		if failed < 0 || appErr == nil || appErr.StatusCode >= 500 {
			return nil, err
		}
		result.Errors = append(result.Errors, ImportRowError{Row: lines[failed], Message: appErr.Message})
		return result, nil
	}

	result.Created = tasks
	s.publisher.TasksImported(ctx, a.OrganizationID, site, len(tasks))

	s.logger.Info().
		Str("job_site_id", site.String()).
		Str("file", filename).
		Int("created", len(tasks)).
		Msg("tasks imported")

	return result, nil
}

// ParseTaskFile reads task rows from a CSV or XLSX file. maxRows <= 0
// means unlimited. File-level problems return an error; row-level problems
// are attached to each row.
func ParseTaskFile(filename string, data []byte, maxRows int) ([]ImportRow, error) {
	var (
		records [][]string
		err     error
	)
	if isXLSX(filename, data) {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	headerAt := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errors.BadRequest("import file is empty")
	}

	columns := make(map[string]int)
	for i, h := range records[headerAt] {
		if name, ok := importColumns[normalizeHeader(h)]; ok {
			if _, dup := columns[name]; !dup {
				columns[name] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errors.BadRequest("import file is missing columns: " + strings.Join(missing, ", "))
	}

	var rows []ImportRow
	for i := headerAt + 1; i < len(records); i++ {
		if blankRecord(records[i]) {
			continue
		}
		if maxRows > 0 && len(rows) == maxRows {
			return nil, errors.BadRequest(fmt.Sprintf("import file has more than %d rows", maxRows))
		}
		rows = append(rows, parseImportRow(i+1, records[i], columns))
	}
	if len(rows) == 0 {
		return nil, errors.BadRequest("import file has no data rows")
	}
	return rows, nil
}

func parseImportRow(line int, rec []string, columns map[string]int) ImportRow {
	row := ImportRow{Line: line}
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	fail := func(field, msg string) {
		row.Errors = append(row.Errors, ImportRowError{Row: line, Field: field, Message: msg})
	}

	req := &row.Request
	req.Name = cell("name")
	req.Description = cell("description")
	req.Color = cell("color")

	for _, f := range []struct {
		name string
		dst  *string
	}{{"start_date", &req.StartDate}, {"end_date", &req.EndDate}} {
		raw := cell(f.name)
		if raw == "" {
			fail(f.name, "is required")
			continue
		}
		d, err := ParseImportDate(raw)
		if err != nil {
			fail(f.name, err.Error())
			continue
		}
		*f.dst = domain.FormatDate(d)
	}

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"required_operators", &req.RequiredOperators},
		{"required_laborers", &req.RequiredLaborers},
		{"required_carpenters", &req.RequiredCarpenters},
		{"required_masons", &req.RequiredMasons},
	} {
		n, err := parseCount(cell(f.name))
		if err != nil {
			fail(f.name, err.Error())
			continue
		}
		*f.dst = n
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"include_saturday", &req.IncludeSaturday},
		{"include_sunday", &req.IncludeSunday},
		{"include_holidays", &req.IncludeHolidays},
	} {
		b, err := parseFlag(cell(f.name))
		if err != nil {
			fail(f.name, err.Error())
			continue
		}
		*f.dst = b
	}

	if req.Color != "" && !strings.HasPrefix(req.Color, "#") {
		req.Color = "#" + req.Color
	}
	if req.Color != "" && !validHexColor(req.Color) {
		fail("color", "must be a hex color like #3b82f6")
	}
	if len(req.Name) > 200 {
		fail("name", "must be at most 200 characters")
	}
	return row
}

// ParseImportDate accepts YYYY-MM-DD, US m/d/Y (two or four digit year)
// and Excel serial day numbers
func ParseImportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{domain.DateLayout, "1/2/2006", "1/2/06", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("must be a whole number")
	}
	if f < 0 {
		return 0, fmt.Errorf("must be at least 0")
	}
	if f > 500 {
		return 0, fmt.Errorf("must be at most 500")
	}
	return int(f), nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "n", "f":
		return false, nil
	case "1", "true", "yes", "y", "t", "x", "si", "sí":
		return true, nil
	}
	return false, fmt.Errorf("must be yes or no")
}

func validHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	for _, c := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// normalizeHeader lowercases h and joins its words with underscores
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("-", " ", ".", " ", "_", " ", "(", " ", ")", " ").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isXLSX(filename string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	case ".csv", ".txt":
		return false
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		r.Comma = ';'
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.BadRequest("invalid CSV: " + err.Error())
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.BadRequest("invalid XLSX file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.BadRequest("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.BadRequest("failed to read XLSX sheet " + sheets[0])
	}
	return rows, nil
}

func fieldErrors(line int, problems map[string]string) []ImportRowError {
	out := make([]ImportRowError, 0, len(problems))
	for _, field := range []string{"name", "start_date", "end_date", "required_operators", "required_laborers", "required_carpenters", "required_masons", "color"} {
		if msg, ok := problems[field]; ok {
			out = append(out, ImportRowError{Row: line, Field: field, Message: msg})
		}
	}
	return out
}
