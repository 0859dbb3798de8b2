package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"attendtrack/internal/apperr"
	"attendtrack/internal/attendance"
	"attendtrack/internal/model"
)

// MaxTrendWeeks bounds the weekly trend window.
const MaxTrendWeeks = 104

// Source is the read side of the store used by the engine.
type Source interface {
	ListAttendanceRows(ctx context.Context, f model.RecordFilter) ([]model.AttendanceRow, error)
	CountStudents(ctx context.Context) (int, error)
}

// Engine computes every aggregate report from joined attendance rows.
type Engine struct {
	src   Source
	weeks int
	now   func() time.Time
}

// NewEngine creates an engine; defaultWeeks is used when a trend request omits N.
func NewEngine(src Source, defaultWeeks int) *Engine {
	if defaultWeeks <= 0 {
		defaultWeeks = 4
	}
	return &Engine{src: src, weeks: defaultWeeks, now: time.Now}
}

// StudentRow is one line of the cross-student summary report.
type StudentRow struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	RollNumber  string            `json:"roll_number"`
	Department  string            `json:"department"`
	ProgramType model.ProgramType `json:"program_type"`
	attendance.Summary
	Percentage float64 `json:"percentage"`
}

// Bounds are optional inclusive percentage limits.
type Bounds struct {
	Min *float64
	Max *float64
}

// Validate rejects bounds outside [0, 100] or with Min above Max.
func (b Bounds) Validate() error {
	limits := []struct {
		field string
		v     *float64
	}{{"minPercentage", b.Min}, {"maxPercentage", b.Max}}
	for _, l := range limits {
		if l.v != nil && (*l.v < 0 || *l.v > 100) {
			return apperr.ValidationError{Field: l.field, Value: *l.v, Message: "must be between 0 and 100"}
		}
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return apperr.Invalid("minPercentage", "must not exceed maxPercentage")
	}
	return nil
}

// Summary groups the filtered rows by student and drops students outside b.
func (e *Engine) Summary(ctx context.Context, f model.RecordFilter, b Bounds) ([]StudentRow, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rows, err := e.src.ListAttendanceRows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list attendance rows: %w", err)
	}
	return FilterByPercentage(GroupByStudent(rows), b), nil
}

// GroupByStudent folds rows per student with the same Summary.Add used for
// single-student summaries. Output is ordered by roll number.
func GroupByStudent(rows []model.AttendanceRow) []StudentRow {
	index := make(map[string]int)
	out := []StudentRow{}
	for _, r := range rows {
		i, ok := index[r.StudentID]
		if !ok {
			i = len(out)
			index[r.StudentID] = i
			out = append(out, StudentRow{
				StudentID:   r.StudentID,
				StudentName: r.StudentName,
				RollNumber:  r.RollNumber,
				Department:  r.Department,
				ProgramType: r.ProgramType,
			})
		}
		out[i].Add(r.AMPresent, r.PMPresent)
	}
	for i := range out {
		out[i].Percentage = out[i].Summary.Percentage()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out
}

// FilterByPercentage keeps rows whose percentage lies within b, inclusive.
func FilterByPercentage(rows []StudentRow, b Bounds) []StudentRow {
	if b.Min == nil && b.Max == nil {
		return rows
	}
	out := make([]StudentRow, 0, len(rows))
	for _, r := range rows {
		if b.Min != nil && r.Percentage < *b.Min {
			continue
		}
		if b.Max != nil && r.Percentage > *b.Max {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Export returns one joined row per attendance record, in date then roll order.
func (e *Engine) Export(ctx context.Context, f model.RecordFilter) ([]model.AttendanceRow, error) {
	rows, err := e.src.ListAttendanceRows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list attendance rows: %w", err)
	}
	if rows == nil {
		rows = []model.AttendanceRow{}
	}
	return rows, nil
}

// Daily is Export restricted to a single day.
func (e *Engine) Daily(ctx context.Context, day time.Time, f model.RecordFilter) ([]model.AttendanceRow, error) {
	f.Range = model.SingleDay(day)
	return e.Export(ctx, f)
}

// DepartmentStat is the per-department slice of a dashboard.
type DepartmentStat struct {
	Department   string  `json:"department"`
	PresentValue float64 `json:"presentValue"`
	Count        int     `json:"count"`
}

// Dashboard is the admin overview for one day.
type Dashboard struct {
	Date            string           `json:"date"`
	TotalStudents   int              `json:"totalStudents"`
	MarkedStudents  int              `json:"markedStudents"`
	PresentValue    float64          `json:"presentValue"`
	DepartmentStats []DepartmentStat `json:"departmentStats"`
}

// Dashboard summarizes one day across the whole roster.
func (e *Engine) Dashboard(ctx context.Context, day time.Time) (Dashboard, error) {
	day = model.Day(day)
	total, err := e.src.CountStudents(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count students: %w", err)
	}
	rows, err := e.src.ListAttendanceRows(ctx, model.RecordFilter{Range: model.SingleDay(day)})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list attendance rows: %w", err)
	}

	d := Dashboard{Date: day.Format(model.DayLayout), TotalStudents: total, DepartmentStats: []DepartmentStat{}}
	marked := make(map[string]struct{})
	depts := make(map[string]*DepartmentStat)
	for _, r := range rows {
		v := attendance.DayValue(r.AMPresent, r.PMPresent)
		marked[r.StudentID] = struct{}{}
		d.PresentValue += v
		ds, ok := depts[r.Department]
		if !ok {
			ds = &DepartmentStat{Department: r.Department}
			depts[r.Department] = ds
		}
		ds.PresentValue += v
		ds.Count++
	}
	d.MarkedStudents = len(marked)
	for _, ds := range depts {
		d.DepartmentStats = append(d.DepartmentStats, *ds)
	}
	sort.Slice(d.DepartmentStats, func(i, j int) bool {
		return d.DepartmentStats[i].Department < d.DepartmentStats[j].Department
	})
	return d, nil
}

// WeeklyBucket aggregates one ISO week.
type WeeklyBucket struct {
	Year         int     `json:"year"`
	Week         int     `json:"week"`
	WeekID       string  `json:"weekId"`
	PresentValue float64 `json:"presentValue"`
	Days         int     `json:"days"`
}

// WeeklyTrend buckets the last weeks ISO weeks, the current one included.
// weeks <= 0 selects the engine default.
func (e *Engine) WeeklyTrend(ctx context.Context, weeks int) ([]WeeklyBucket, error) {
	if weeks <= 0 {
		weeks = e.weeks
	}
	if weeks > MaxTrendWeeks {
		return nil, apperr.ValidationError{Field: "weeks", Value: weeks, Message: fmt.Sprintf("must be at most %d", MaxTrendWeeks)}
	}
	r := TrendWindow(e.now(), weeks)
	rows, err := e.src.ListAttendanceRows(ctx, model.RecordFilter{Range: r})
	if err != nil {
		return nil, fmt.Errorf("list attendance rows: %w", err)
	}
	return Weekly(rows), nil
}

// TrendWindow spans from the Monday weeks-1 weeks before now's week through now's day.
func TrendWindow(now time.Time, weeks int) model.DateRange {
	today := model.Day(now)
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset-7*(weeks-1))
	return model.DateRange{From: &start, To: &today}
}

// Weekly groups rows by ISO week in ascending order.
func Weekly(rows []model.AttendanceRow) []WeeklyBucket {
	type key struct{ year, week int }
	index := make(map[key]int)
	out := []WeeklyBucket{}
	for _, r := range rows {
		y, w := r.Date.ISOWeek()
		k := key{y, w}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, WeeklyBucket{Year: y, Week: w, WeekID: fmt.Sprintf("%d-W%02d", y, w)})
		}
		out[i].PresentValue += attendance.DayValue(r.AMPresent, r.PMPresent)
		out[i].Days++
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	return out
}
