package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"attendtrack/internal/model"
	"attendtrack/internal/report"
)

// SummaryHeaders is the fixed column order of the summary report.
var SummaryHeaders = []string{
	"Student Name", "Roll Number", "Department", "Program Type",
	"Full Days", "Half Days", "Absent Days", "Attendance %",
}

// AttendanceHeaders is the fixed column order of the raw attendance export.
var AttendanceHeaders = []string{
	"Student Name", "Roll Number", "Department", "Program Type",
	"Date", "AM", "PM", "Training Event", "Remarks",
}

func summaryRecord(r report.StudentRow) []string {
	return []string{
		r.StudentName,
		r.RollNumber,
		r.Department,
		string(r.ProgramType),
		strconv.Itoa(r.FullDays),
		strconv.Itoa(r.HalfDays),
		strconv.Itoa(r.AbsentDays),
		strconv.FormatFloat(r.Percentage, 'f', -1, 64),
	}
}

func attendanceRecord(r model.AttendanceRow) []string {
	return []string{
		r.StudentName,
		r.RollNumber,
		r.Department,
		string(r.ProgramType),
		r.Date.Format(model.DayLayout),
		strconv.FormatBool(r.AMPresent),
		strconv.FormatBool(r.PMPresent),
		r.TrainingEvent,
		r.Remarks,
	}
}

// SummaryCSV writes the summary report as CSV.
func SummaryCSV(w io.Writer, rows []report.StudentRow) error {
	return writeCSV(w, SummaryHeaders, len(rows), func(i int) []string { return summaryRecord(rows[i]) })
}

// AttendanceCSV writes one line per attendance record.
func AttendanceCSV(w io.Writer, rows []model.AttendanceRow) error {
	return writeCSV(w, AttendanceHeaders, len(rows), func(i int) []string { return attendanceRecord(rows[i]) })
}

func writeCSV(w io.Writer, headers []string, n int, record func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(record(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummarySheet is the sheet name used by SummaryXLSX.
const SummarySheet = "Summary"

// SummaryXLSX writes the summary report as a single-sheet workbook. Counts
// and the percentage are stored as numbers so they sort and sum in a spreadsheet.
func SummaryXLSX(w io.Writer, rows []report.StudentRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	header := make([]interface{}, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.StudentName, r.RollNumber, r.Department, string(r.ProgramType),
			r.FullDays, r.HalfDays, r.AbsentDays, r.Percentage,
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
