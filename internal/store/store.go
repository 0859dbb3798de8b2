package store

import (
	"context"

	"attendtrack/internal/model"
)

// Store is the persistence surface shared by the Postgres and in-memory backends.
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	Ping(ctx context.Context) error

	FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, a *model.Admin) error

	CreateStudent(ctx context.Context, s *model.Student) error
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	FindStudentByRoll(ctx context.Context, roll string) (*model.Student, error)
	ListStudents(ctx context.Context, f model.StudentFilter) ([]model.Student, error)
	UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (*model.Student, error)
	UpsertStudentProfile(ctx context.Context, s *model.Student) (bool, error)
	SetStudentPassword(ctx context.Context, id, hash string) (bool, error)
	DeleteStudent(ctx context.Context, id string) (bool, error)
	CountStudents(ctx context.Context) (int, error)

	UpsertAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	ListStudentAttendance(ctx context.Context, studentID string, r model.DateRange) ([]model.AttendanceRecord, error)
	ListAttendanceRows(ctx context.Context, f model.RecordFilter) ([]model.AttendanceRow, error)

	ListEvents(ctx context.Context, r model.DateRange) ([]model.DailyEvent, error)
	CreateEvent(ctx context.Context, e *model.DailyEvent) error
	UpdateEvent(ctx context.Context, id string, u model.EventUpdate) (*model.DailyEvent, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
