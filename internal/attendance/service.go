package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"attendtrack/internal/apperr"
	"attendtrack/internal/importer"
	"attendtrack/internal/metrics"
	"attendtrack/internal/model"
)

// Repository is the slice of the store the attendance service needs.
type Repository interface {
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	FindStudentByRoll(ctx context.Context, roll string) (*model.Student, error)
	UpsertAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	ListStudentAttendance(ctx context.Context, studentID string, r model.DateRange) ([]model.AttendanceRecord, error)
}

// Service marks, imports and reads per-student attendance.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// MarkEntry is the AM/PM state of one student in a mark request.
type MarkEntry struct {
	StudentID     string `json:"student_id"`
	AMPresent     bool   `json:"am_attendance"`
	PMPresent     bool   `json:"pm_attendance"`
	TrainingEvent string `json:"training_event"`
	Remarks       string `json:"remarks"`
}

// MarkRequest marks a set of students for one day.
type MarkRequest struct {
	Date    string      `json:"date"`
	Records []MarkEntry `json:"records"`
}

// Mark upserts one record per entry for the request date and returns how
// many were written. Every student id is checked before the first write, so
// an unknown id leaves the store untouched.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (int, error) {
	if strings.TrimSpace(req.Date) == "" {
		return 0, apperr.Invalid("date", "date is required")
	}
	if len(req.Records) == 0 {
		return 0, apperr.Invalid("records", "records must not be empty")
	}
	day, err := model.ParseDay(req.Date)
	if err != nil {
		return 0, apperr.ValidationError{Field: "date", Value: req.Date, Message: "expected YYYY-MM-DD"}
	}

	seen := make(map[string]bool, len(req.Records))
	for _, e := range req.Records {
		if e.StudentID == "" {
			return 0, apperr.Invalid("student_id", "student_id is required")
		}
		if seen[e.StudentID] {
			continue
		}
		st, err := s.repo.GetStudent(ctx, e.StudentID)
		if err != nil {
			return 0, fmt.Errorf("lookup student %s: %w", e.StudentID, err)
		}
		if st == nil {
			return 0, apperr.ValidationError{Field: "student_id", Value: e.StudentID, Message: "unknown student"}
		}
		seen[e.StudentID] = true
	}

	updated := 0
	for _, e := range req.Records {
		_, err := s.repo.UpsertAttendance(ctx, model.AttendanceRecord{
			StudentID:     e.StudentID,
			Date:          day,
			AMPresent:     e.AMPresent,
			PMPresent:     e.PMPresent,
			TrainingEvent: strings.TrimSpace(e.TrainingEvent),
			Remarks:       strings.TrimSpace(e.Remarks),
		})
		if err != nil {
			return updated, fmt.Errorf("upsert attendance for %s: %w", e.StudentID, err)
		}
		updated++
	}
	metrics.AttendanceMarked.WithLabelValues("mark").Add(float64(updated))
	s.log.Info().Str("date", day.Format(model.DayLayout)).Int("updated", updated).Msg("attendance marked")
	return updated, nil
}

// Stats is a Summary with its percentage attached.
type Stats struct {
	Summary
	Percentage float64 `json:"percentage"`
}

// WithPercentage attaches the rounded percentage to s.
func WithPercentage(s Summary) Stats {
	return Stats{Summary: s, Percentage: s.Percentage()}
}

// History returns the records of studentID in r, oldest first. who must be
// an admin or the student itself.
func (s *Service) History(ctx context.Context, who model.Principal, studentID string, r model.DateRange) ([]model.AttendanceRecord, error) {
	if !who.CanView(studentID) {
		return nil, apperr.ErrForbidden
	}
	st, err := s.repo.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperr.NotFound("student")
	}
	records, err := s.repo.ListStudentAttendance(ctx, studentID, r)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	return records, nil
}

// StudentSummary folds the student's records in r.
func (s *Service) StudentSummary(ctx context.Context, who model.Principal, studentID string, r model.DateRange) (Stats, error) {
	records, err := s.History(ctx, who, studentID, r)
	if err != nil {
		return Stats{}, err
	}
	return WithPercentage(Summarize(records)), nil
}

// BulkImport upserts attendance rows from an uploaded table. Header problems
// fail the whole upload; rows with an unknown roll number or an unreadable
// date are skipped.
func (s *Service) BulkImport(ctx context.Context, format importer.Format, data []byte) (importer.Result, error) {
	rows, err := importer.ParseAttendance(format, data)
	if err != nil {
		return importer.Result{}, err
	}

	var res importer.Result
	students := make(map[string]*model.Student)
	for _, row := range rows {
		roll := model.NormalizeRoll(row.RollNumber)
		if roll == "" {
			res.Skipped++
			continue
		}
		day, err := model.ParseDay(row.Date)
		if err != nil {
			s.log.Debug().Int("line", row.Line).Str("date", row.Date).Msg("skipping row with unreadable date")
			res.Skipped++
			continue
		}
		st, ok := students[roll]
		if !ok {
			if st, err = s.repo.FindStudentByRoll(ctx, roll); err != nil {
				return res, fmt.Errorf("lookup roll %s: %w", roll, err)
			}
			students[roll] = st
		}
		if st == nil {
			res.Skipped++
			continue
		}
		_, err = s.repo.UpsertAttendance(ctx, model.AttendanceRecord{
			StudentID:     st.ID,
			Date:          day,
			AMPresent:     row.AM,
			PMPresent:     row.PM,
			TrainingEvent: row.TrainingEvent,
			Remarks:       row.Remarks,
		})
		if err != nil {
			return res, fmt.Errorf("upsert attendance line %d: %w", row.Line, err)
		}
		res.Imported++
	}

	metrics.AttendanceMarked.WithLabelValues("import").Add(float64(res.Imported))
	metrics.RecordImport("attendance", res.Imported, res.Skipped)
	s.log.Info().Int("rows", len(rows)).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("attendance import finished")
	return res, nil
}
