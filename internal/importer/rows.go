package importer

import (
	"fmt"
	"strings"
)

// Result is the outcome of an import: rows written and rows skipped.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// StudentRow is one roster line reduced to its four logical fields.
type StudentRow struct {
	Line        int
	Name        string
	RollNumber  string
	Department  string
	ProgramType string
}

// AttendanceRow is one attendance line. Date is kept raw; callers day-truncate it.
type AttendanceRow struct {
	Line          int
	RollNumber    string
	Date          string
	AM            bool
	PM            bool
	TrainingEvent string
	Remarks       string
}

// ParseStudents parses a roster upload. Header problems fail the whole file
// before any row is returned; columns outside the four fields are ignored.
func ParseStudents(format Format, data []byte) ([]StudentRow, error) {
	t, cols, err := parseWith(format, data, StudentFields)
	if err != nil {
		return nil, err
	}
	out := make([]StudentRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, StudentRow{
			Line:        r.Line,
			Name:        r.Values[cols["student_name"]],
			RollNumber:  r.Values[cols["roll_number"]],
			Department:  r.Values[cols["department"]],
			ProgramType: r.Values[cols["program_type"]],
		})
	}
	return out, nil
}

// ParseAttendance parses an attendance upload with the same header rules as ParseStudents.
func ParseAttendance(format Format, data []byte) ([]AttendanceRow, error) {
	t, cols, err := parseWith(format, data, AttendanceFields)
	if err != nil {
		return nil, err
	}
	out := make([]AttendanceRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, AttendanceRow{
			Line:          r.Line,
			RollNumber:    r.Values[cols["roll_number"]],
			Date:          r.Values[cols["date"]],
			AM:            Truthy(r.Values[cols["am"]]),
			PM:            Truthy(r.Values[cols["pm"]]),
			TrainingEvent: r.Values[cols["training_event"]],
			Remarks:       r.Values[cols["remarks"]],
		})
	}
	return out, nil
}

func parseWith(format Format, data []byte, fields []Field) (Table, map[string]string, error) {
	t, err := ParseTable(format, data)
	if err != nil {
		return Table{}, nil, err
	}
	cols, err := ResolveHeaders(t.Headers, fields)
	if err != nil {
		return Table{}, nil, fmt.Errorf("resolve headers: %w", err)
	}
	return t, cols, nil
}

// Truthy accepts exactly "1", "true" and "TRUE"; anything else is false.
func Truthy(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "true", "TRUE":
		return true
	}
	return false
}
