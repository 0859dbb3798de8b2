package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"attendtrack/internal/attendance"
	"attendtrack/internal/model"
	"attendtrack/internal/report"
)

func sampleSummary() []report.StudentRow {
	return []report.StudentRow{
		{
			StudentName: "Asha, K", RollNumber: "R1", Department: "CSE", ProgramType: model.ProgramUG,
			Summary:    attendance.Summary{TotalDays: 3, PresentValue: 2, FullDays: 2, AbsentDays: 1},
			Percentage: 66.67,
		},
		{
			StudentName: "Bala", RollNumber: "R2", Department: "ECE", ProgramType: model.ProgramPG,
			Summary:    attendance.Summary{TotalDays: 1, PresentValue: 0.5, HalfDays: 1},
			Percentage: 50,
		},
	}
}

func TestSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := SummaryCSV(&buf, sampleSummary()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Student Name,Roll Number,Department,Program Type,Full Days,Half Days,Absent Days,Attendance %" {
		t.Fatalf("header %q", lines[0])
	}
	if lines[1] != `"Asha, K",R1,CSE,UG,2,0,1,66.67` {
		t.Fatalf("row %q", lines[1])
	}
	if lines[2] != "Bala,R2,ECE,PG,0,1,0,50" {
		t.Fatalf("row %q", lines[2])
	}
}

func TestAttendanceCSVEscapesNewlines(t *testing.T) {
	rows := []model.AttendanceRow{{
		StudentName: "Asha", RollNumber: "R1", Department: "CSE", ProgramType: model.ProgramUG,
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), AMPresent: true,
		TrainingEvent: "Drill", Remarks: "left early\nreturned",
	}}
	var buf bytes.Buffer
	if err := AttendanceCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	want := []string{"Asha", "R1", "CSE", "UG", "2026-03-02", "true", "false", "Drill", "left early\nreturned"}
	for i, v := range want {
		if records[1][i] != v {
			t.Fatalf("column %s = %q, want %q", AttendanceHeaders[i], records[1][i], v)
		}
	}
}

func TestEmptyExportsKeepHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := AttendanceCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(AttendanceHeaders, ",") {
		t.Fatalf("got %q", got)
	}
}

func TestSummaryXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := SummaryXLSX(&buf, sampleSummary()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][7] != "Attendance %" || rows[1][0] != "Asha, K" || rows[2][7] != "50" {
		t.Fatalf("unexpected sheet %v", rows)
	}
}
