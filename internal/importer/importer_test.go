package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"attendtrack/internal/apperr"
)

func TestNormalizeHeader(t *testing.T) {
	for _, in := range []string{"Roll No", "roll_no", " ROLL NO ", "Roll  No.", "ROLL_NO"} {
		if got := NormalizeHeader(in); got != "roll no" {
			t.Errorf("NormalizeHeader(%q) = %q", in, got)
		}
	}
}

func TestResolveHeadersAliases(t *testing.T) {
	for _, roll := range []string{"Roll No", "roll_no", " ROLL NO ", "RegNo", "Roll Number"} {
		headers := []string{"Name", roll, "Dept", "Program", "Email"}
		cols, err := ResolveHeaders(headers, StudentFields)
		if err != nil {
			t.Fatalf("headers %v: %v", headers, err)
		}
		if cols["roll_number"] != roll {
			t.Errorf("roll_number resolved to %q, want %q", cols["roll_number"], roll)
		}
		if cols["student_name"] != "Name" || cols["department"] != "Dept" || cols["program_type"] != "Program" {
			t.Errorf("unexpected mapping %v", cols)
		}
	}
}

func TestResolveHeadersMissingField(t *testing.T) {
	_, err := ResolveHeaders([]string{"Student Name", "Department", "Program Type"}, StudentFields)
	var ve apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "roll_number" {
		t.Fatalf("Field = %q", ve.Field)
	}
	for _, alias := range rollAliases {
		if !strings.Contains(ve.Message, alias) {
			t.Errorf("message %q does not list alias %q", ve.Message, alias)
		}
	}
}

func TestParseStudentsCSV(t *testing.T) {
	data := "\xef\xbb\xbfStudent Name,Roll No,Dept,Program Type,Phone\n" +
		"Asha Rao, cs101 ,CSE,UG,999\n" +
		"\n" +
		",,,,\n" +
		"\"Kumar, Ravi\",cs102,ECE,pg,\n"
	rows, err := ParseStudents(FormatCSV, []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].RollNumber != "cs101" || rows[0].Name != "Asha Rao" || rows[0].Department != "CSE" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Name != "Kumar, Ravi" || rows[1].ProgramType != "pg" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestParseEmptyVersusBadHeader(t *testing.T) {
	_, err := ParseStudents(FormatCSV, []byte("Student Name,Roll No,Dept,Program\n"))
	if !errors.Is(err, apperr.ErrEmptyFile) {
		t.Fatalf("header-only file: err = %v, want ErrEmptyFile", err)
	}
	_, err = ParseStudents(FormatCSV, nil)
	if !errors.Is(err, apperr.ErrEmptyFile) {
		t.Fatalf("empty file: err = %v, want ErrEmptyFile", err)
	}
	_, err = ParseStudents(FormatCSV, []byte("Name,Dept,Program\nA,CSE,UG\n"))
	if errors.Is(err, apperr.ErrEmptyFile) || !apperr.IsValidation(err) {
		t.Fatalf("missing column: err = %v, want ValidationError", err)
	}
}

func TestParseAttendanceCSV(t *testing.T) {
	data := "Roll Number,Date,AM,PM,Training Event,Remarks\n" +
		"cs101,2024-03-05,1,0,Drill,\n" +
		"cs102,2024-03-05,TRUE,True,,late\n"
	rows, err := ParseAttendance(FormatCSV, []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if !rows[0].AM || rows[0].PM || rows[0].TrainingEvent != "Drill" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[1].AM || rows[1].PM || rows[1].Remarks != "late" {
		t.Errorf("row 1 = %+v (\"True\" is not a true token)", rows[1])
	}
}

func TestParseAttendanceRequiresRemarksColumn(t *testing.T) {
	data := "Roll Number,Date,AM,PM,Training Event\ncs101,2024-03-05,1,0,Drill\n"
	_, err := ParseAttendance(FormatCSV, []byte(data))
	var ve apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "remarks" {
		t.Fatalf("err = %v, want missing remarks column", err)
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{"1": true, "true": true, "TRUE": true, " 1 ": true, "True": false, "yes": false, "0": false, "": false}
	for in, want := range cases {
		if got := Truthy(in); got != want {
			t.Errorf("Truthy(%q) = %v", in, got)
		}
	}
}

func TestParseStudentsXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Name", "Reg No", "Department", "Program"},
		{"Asha Rao", "cs101", "CSE", "UG"},
		{"Ravi Kumar", "cs102", "ECE"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseStudents(FormatXLSX, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	if got[1].RollNumber != "cs102" || got[1].ProgramType != "" {
		t.Errorf("short row should default missing cells to empty: %+v", got[1])
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name, file, ctype string
		data              []byte
		want              Format
	}{
		{"csv extension", "roster.CSV", "application/octet-stream", nil, FormatCSV},
		{"xlsx extension", "roster.xlsx", "", nil, FormatXLSX},
		{"csv content type", "upload", "text/csv; charset=utf-8", nil, FormatCSV},
		{"excel content type", "upload", "application/vnd.ms-excel", nil, FormatXLSX},
		{"sniffed text", "upload", "application/octet-stream", []byte("a,b,c\n1,2,3\n"), FormatCSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFormat(tc.file, tc.ctype, tc.data)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	_, err := DetectFormat("photo", "image/png", []byte("\x89PNG\r\n\x1a\n0000"))
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Fatalf("png: err = %v", err)
	}
}
