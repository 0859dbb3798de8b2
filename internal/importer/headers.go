package importer

import (
	"fmt"
	"strings"

	"attendtrack/internal/apperr"
)

// Field is a logical column and the header spellings accepted for it.
type Field struct {
	Name    string
	Aliases []string
}

var rollAliases = []string{"roll number", "roll no", "roll_no", "reg no", "regno"}

// StudentFields are the columns a roster upload must carry.
var StudentFields = []Field{
	{Name: "student_name", Aliases: []string{"student name", "name", "student_name"}},
	{Name: "roll_number", Aliases: rollAliases},
	{Name: "department", Aliases: []string{"department", "dept"}},
	{Name: "program_type", Aliases: []string{"program type", "program", "program_type"}},
}

// AttendanceFields are the columns an attendance upload must carry.
var AttendanceFields = []Field{
	{Name: "roll_number", Aliases: rollAliases},
	{Name: "date", Aliases: []string{"date", "attendance date"}},
	{Name: "am", Aliases: []string{"am", "am attendance", "am_attendance"}},
	{Name: "pm", Aliases: []string{"pm", "pm attendance", "pm_attendance"}},
	{Name: "training_event", Aliases: []string{"training event", "training_event"}},
	{Name: "remarks", Aliases: []string{"remarks", "remark"}},
}

// NormalizeHeader folds case, underscores, dots and runs of whitespace so that
// "Roll No", "roll_no" and " ROLL  NO. " compare equal.
func NormalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = strings.NewReplacer("_", " ", ".", "").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// ResolveHeaders maps every field to the first header that matches one of its
// aliases. It fails on the first field with no matching header, naming the
// field and the spellings it accepts.
func ResolveHeaders(headers []string, fields []Field) (map[string]string, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	resolved := make(map[string]string, len(fields))
	for _, f := range fields {
		key, ok := findColumn(headers, normalized, f.Aliases)
		if !ok {
			return nil, apperr.ValidationError{
				Field:   f.Name,
				Message: fmt.Sprintf("missing required column. Expected one of: %s", strings.Join(f.Aliases, ", ")),
			}
		}
		resolved[f.Name] = key
	}
	return resolved, nil
}

func findColumn(headers, normalized, aliases []string) (string, bool) {
	for i, n := range normalized {
		if n == "" {
			continue
		}
		for _, a := range aliases {
			if n == NormalizeHeader(a) {
				return headers[i], true
			}
		}
	}
	return "", false
}
