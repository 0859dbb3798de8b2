package model

import (
	"strings"
	"time"
)

// ProgramType is the enrolment level of a student.
type ProgramType string

const (
	ProgramUG ProgramType = "UG"
	ProgramPG ProgramType = "PG"
)

// ParseProgramType accepts any casing and surrounding whitespace.
func ParseProgramType(s string) (ProgramType, bool) {
	p := ProgramType(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

func (p ProgramType) Valid() bool {
	return p == ProgramUG || p == ProgramPG
}

// Role is carried in access tokens.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// NormalizeRoll returns the canonical form of a roll number: trimmed and upper-cased.
func NormalizeRoll(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Student is a roster entry. RollNumber is the natural key and never changes after creation.
type Student struct {
	ID           string      `json:"id"`
	RollNumber   string      `json:"roll_number"`
	Name         string      `json:"student_name"`
	Department   string      `json:"department"`
	ProgramType  ProgramType `json:"program_type"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// StudentUpdate holds the mutable profile fields; nil leaves a field untouched.
type StudentUpdate struct {
	Name        *string
	Department  *string
	ProgramType *ProgramType
}

// StudentFilter narrows roster listings. Search matches name or roll number, case-insensitively.
type StudentFilter struct {
	Department  string
	ProgramType ProgramType
	Search      string
}

func (f StudentFilter) Match(s Student) bool {
	if f.Department != "" && s.Department != f.Department {
		return false
	}
	if f.ProgramType != "" && s.ProgramType != f.ProgramType {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.RollNumber), q) {
			return false
		}
	}
	return true
}

// Admin is an operator account.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttendanceRecord is the AM/PM fact for one student on one day; (StudentID, Date) is unique.
type AttendanceRecord struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Date          time.Time `json:"date"`
	AMPresent     bool      `json:"am_attendance"`
	PMPresent     bool      `json:"pm_attendance"`
	TrainingEvent string    `json:"training_event,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AttendanceRow is an attendance record joined with its owning student.
type AttendanceRow struct {
	StudentID     string      `json:"student_id"`
	StudentName   string      `json:"student_name"`
	RollNumber    string      `json:"roll_number"`
	Department    string      `json:"department"`
	ProgramType   ProgramType `json:"program_type"`
	Date          time.Time   `json:"date"`
	AMPresent     bool        `json:"am_attendance"`
	PMPresent     bool        `json:"pm_attendance"`
	TrainingEvent string      `json:"training_event"`
	Remarks       string      `json:"remarks"`
}

// RecordFilter selects joined attendance rows. Empty fields do not filter.
type RecordFilter struct {
	Range       DateRange
	Department  string
	ProgramType ProgramType
	StudentID   string
}

// MatchStudent applies the student-side equality filters.
func (f RecordFilter) MatchStudent(s Student) bool {
	if f.StudentID != "" && s.ID != f.StudentID {
		return false
	}
	if f.Department != "" && s.Department != f.Department {
		return false
	}
	if f.ProgramType != "" && s.ProgramType != f.ProgramType {
		return false
	}
	return true
}

// DailyEvent is an institutional calendar entry; (Date, Name) is unique.
type DailyEvent struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Name        string    `json:"event_name"`
	Description string    `json:"event_description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventUpdate holds the mutable event fields; nil leaves a field untouched.
type EventUpdate struct {
	Date        *time.Time
	Name        *string
	Description *string
	Completed   *bool
}

// Sessions exposes the AM/PM pair for attendance folds.
func (r AttendanceRecord) Sessions() (am, pm bool) { return r.AMPresent, r.PMPresent }

// Sessions exposes the AM/PM pair for attendance folds.
func (r AttendanceRow) Sessions() (am, pm bool) { return r.AMPresent, r.PMPresent }

// Principal is the authenticated caller, passed explicitly into operations that depend on identity.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanView reports whether p may read the attendance of studentID.
func (p Principal) CanView(studentID string) bool {
	return p.IsAdmin() || (p.Role == RoleStudent && p.ID == studentID)
}
