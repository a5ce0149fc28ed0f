package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/i18n"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var contentTypes = map[string]string{
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
}

// ExportFile is a rendered download
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// ExportService renders reports for download and print
type ExportService struct {
	hours    *HoursService
	calendar *CalendarService
}

// NewExportService creates a new export service
func NewExportService(hours *HoursService, calendar *CalendarService) *ExportService {
	return &ExportService{hours: hours, calendar: calendar}
}

// WeeklyHours renders the weekly hours report as csv, xlsx or pdf
func (s *ExportService) WeeklyHours(ctx context.Context, siteID *uuid.UUID, weekOf domain.Date, format string) (*ExportFile, error) {
	if _, ok := contentTypes[format]; !ok {
		return nil, errors.Validation(map[string]string{"format": "must be one of: csv xlsx pdf"})
	}
	report, err := s.hours.Weekly(ctx, siteID, weekOf)
	if err != nil {
		return nil, err
	}

	loc := i18n.LocalizerFromContext(ctx)
	var body []byte
	switch format {
	case FormatCSV:
		body, err = WeeklyCSV(loc, report)
	case FormatXLSX:
		body, err = WeeklyXLSX(loc, report)
	case FormatPDF:
		body, err = WeeklyPDF(loc, report)
	}
	if err != nil {
		return nil, errors.Internal("failed to render export")
	}

	return &ExportFile{
		Name:        fmt.Sprintf("hours-%s.%s", report.WeekStart, format),
		ContentType: contentTypes[format],
		Body:        body,
	}, nil
}

// SchedulePDF renders the Gantt print view
func (s *ExportService) SchedulePDF(ctx context.Context, q CalendarQuery) (*ExportFile, error) {
	cal, err := s.calendar.Calendar(ctx, q)
	if err != nil {
		return nil, err
	}
	body, err := SchedulePDF(i18n.LocalizerFromContext(ctx), cal)
	if err != nil {
		return nil, errors.Internal("failed to render export")
	}
	return &ExportFile{
		Name:        fmt.Sprintf("schedule-%s-%s.pdf", cal.From, cal.To),
		ContentType: contentTypes[FormatPDF],
		Body:        body,
	}, nil
}

// ============================================================================
// WEEKLY HOURS
// ============================================================================

func weeklyHeader(loc *i18n.Localizer, report *WeeklyReport) []string {
	header := []string{loc.T("export.worker"), loc.T("export.trade")}
	start, _ := domain.ParseDate(report.WeekStart)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		header = append(header, d.Format("Mon 01/02"))
	}
	return append(header, loc.T("export.total"), loc.T("export.weighted"))
}

func dayText(loc *i18n.Localizer, c domain.DayCell) string {
	if !c.Recorded {
		return ""
	}
	switch c.Status {
	case domain.HoursOff:
		return loc.T("hours.off")
	case domain.HoursTransferred:
		if c.Hours > 0 {
			return loc.T("hours.transferred") + " " + formatHours(c.Hours)
		}
		return loc.T("hours.transferred")
	}
	return formatHours(c.Hours)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// WeeklyCSV renders the report as CSV with a totals line
func WeeklyCSV(loc *i18n.Localizer, report *WeeklyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(weeklyHeader(loc, report)); err != nil {
		return nil, err
	}
	for _, row := range report.Rows {
		rec := []string{row.WorkerName, string(row.Role)}
		for _, c := range row.Days {
			rec = append(rec, dayText(loc, c))
		}
		rec = append(rec, formatHours(row.TotalHours), formatHours(row.WeightedHours))
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	totals := make([]string, 11)
	totals[0] = loc.T("export.total")
	totals[9] = formatHours(report.TotalHours)
	totals[10] = formatHours(report.WeightedHours)
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// WeeklyXLSX renders the report as a single-sheet workbook. Hours are
// numeric cells; off and transfer days are text.
func WeeklyXLSX(loc *i18n.Localizer, report *WeeklyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Hours"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	title := loc.T("export.weekly_hours_title", map[string]string{"site": report.JobSiteName})
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, "A2", loc.T("export.week_of", map[string]string{"date": report.WeekStart})); err != nil {
		return nil, err
	}

	header := weeklyHeader(loc, report)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A4", &headerRow); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A4", lastCol+"4", bold); err != nil {
		return nil, err
	}

	line := 5
	for _, row := range report.Rows {
		values := []interface{}{row.WorkerName, string(row.Role)}
		for _, c := range row.Days {
			if c.Recorded && c.Status == domain.HoursWorked {
				values = append(values, c.Hours)
			} else {
				values = append(values, dayText(loc, c))
			}
		}
		values = append(values, row.TotalHours, row.WeightedHours)
		cell, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
		line++
	}

	totals := []interface{}{loc.T("export.total"), "", "", "", "", "", "", "", "", report.TotalHours, report.WeightedHours}
	cell, _ := excelize.CoordinatesToCellName(1, line)
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, line), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WeeklyPDF renders the report as a landscape table
func WeeklyPDF(loc *i18n.Localizer, report *WeeklyReport) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(loc.T("export.weekly_hours_title", map[string]string{"site": report.JobSiteName})), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(loc.T("export.week_of", map[string]string{"date": report.WeekStart})), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	header := weeklyHeader(loc, report)
	widths := []float64{50, 24}
	for i := 0; i < 7; i++ {
		widths = append(widths, 20)
	}
	widths = append(widths, 20, 22)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(229, 231, 235)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range report.Rows {
		pdf.CellFormat(widths[0], 6, tr(row.WorkerName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(string(row.Role)), "1", 0, "L", false, 0, "")
		for i, c := range row.Days {
			fill := c.Holiday != ""
			if fill {
				pdf.SetFillColor(254, 243, 199)
			}
			pdf.CellFormat(widths[2+i], 6, tr(dayText(loc, c)), "1", 0, "C", fill, 0, "")
		}
		pdf.CellFormat(widths[9], 6, formatHours(row.TotalHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[10], 6, formatHours(row.WeightedHours), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	span := 0.0
	for _, w := range widths[:9] {
		span += w
	}
	pdf.CellFormat(span, 7, tr(loc.T("export.total")), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[9], 7, formatHours(report.TotalHours), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[10], 7, formatHours(report.WeightedHours), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ============================================================================
// SCHEDULE
// ============================================================================

var statusColors = map[domain.StaffingStatus][3]int{
	domain.StaffingFull:    {134, 239, 172},
	domain.StaffingPartial: {253, 230, 138},
	domain.StaffingEmpty:   {252, 165, 165},
}

// SchedulePDF renders tasks by visible days, each working day colored by
// its staffing status and labeled with the assigned headcount
func SchedulePDF(loc *i18n.Localizer, cal *Calendar) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(8, 10, 8)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(loc.T("export.schedule_title", map[string]string{"site": cal.JobSiteName})), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s - %s", cal.From, cal.To), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	var days []CalendarDay
	for _, d := range cal.Days {
		if d.Visible {
			days = append(days, d)
		}
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	nameW := 55.0
	dayW := 8.0
	if len(days) > 0 {
		dayW = (pageW - left - right - nameW) / float64(len(days))
	}
	fontSize := 7.0
	if dayW < 5 {
		fontSize = 5
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetFillColor(229, 231, 235)
		pdf.CellFormat(nameW, 7, tr(loc.T("export.task")), "1", 0, "L", true, 0, "")
		for _, d := range days {
			fill := d.Holiday != ""
			if fill {
				pdf.SetFillColor(254, 243, 199)
			} else {
				pdf.SetFillColor(229, 231, 235)
			}
			pdf.CellFormat(dayW, 7, d.Date.Format("2"), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	pdf.SetFont("Helvetica", "", fontSize)
	for _, row := range cal.Tasks {
		_, pageH := pdf.GetPageSize()
		if pdf.GetY()+6 > pageH-10 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", fontSize)
		}

		byDate := make(map[string]TaskDay, len(row.Days))
		for _, d := range row.Days {
			byDate[d.Date.String()] = d
		}
		pdf.CellFormat(nameW, 6, tr(truncate(row.Task.Name, 40)), "1", 0, "L", false, 0, "")
		for _, d := range days {
			td, ok := byDate[d.Date.String()]
			if !ok {
				pdf.CellFormat(dayW, 6, "", "1", 0, "C", false, 0, "")
				continue
			}
			c := statusColors[td.Status]
			pdf.SetFillColor(c[0], c[1], c[2])
			pdf.CellFormat(dayW, 6, strconv.Itoa(td.Assigned.Total()), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 8)
	for _, st := range []domain.StaffingStatus{domain.StaffingFull, domain.StaffingPartial, domain.StaffingEmpty} {
		c := statusColors[st]
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.CellFormat(5, 4, "", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 4, " "+tr(loc.T("staffing."+string(st))), "", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(0, 5, time.Now().UTC().Format(time.RFC1123), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
