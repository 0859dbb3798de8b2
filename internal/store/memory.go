package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

type attendanceKey struct {
	studentID string
	day       time.Time
}

type eventKey struct {
	day  time.Time
	name string
}

// Memory is an in-process Store for local development and tests.
// It enforces the same uniqueness and cascade rules as the Postgres schema.
type Memory struct {
	mu         sync.RWMutex
	admins     map[string]model.Admin
	students   map[string]model.Student
	rolls      map[string]string
	attendance map[attendanceKey]model.AttendanceRecord
	events     map[string]model.DailyEvent
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		admins:     make(map[string]model.Admin),
		students:   make(map[string]model.Student),
		rolls:      make(map[string]string),
		attendance: make(map[attendanceKey]model.AttendanceRecord),
		events:     make(map[string]model.DailyEvent),
		now:        time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// -------- Admins --------

func (m *Memory) FindAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetAdmin(_ context.Context, id string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.admins[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) CreateAdmin(_ context.Context, a *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.Email == a.Email {
			return fmt.Errorf("admin %w", apperr.ErrConflict)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = model.RoleAdmin
	}
	a.CreatedAt = m.now().UTC()
	m.admins[a.ID] = *a
	return nil
}

// -------- Students --------

func (m *Memory) CreateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rolls[s.RollNumber]; ok {
		return fmt.Errorf("student %w", apperr.ErrConflict)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := m.now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.students[s.ID] = *s
	m.rolls[s.RollNumber] = s.ID
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) FindStudentByRoll(_ context.Context, roll string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.rolls[roll]; ok {
		s := m.students[id]
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) ListStudents(_ context.Context, f model.StudentFilter) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Student
	for _, s := range m.students {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) UpdateStudent(_ context.Context, id string, u model.StudentUpdate) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Department != nil {
		s.Department = *u.Department
	}
	if u.ProgramType != nil {
		s.ProgramType = *u.ProgramType
	}
	s.UpdatedAt = m.now().UTC()
	m.students[id] = s
	return &s, nil
}

func (m *Memory) UpsertStudentProfile(_ context.Context, s *model.Student) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if id, ok := m.rolls[s.RollNumber]; ok {
		existing := m.students[id]
		existing.Name = s.Name
		existing.Department = s.Department
		existing.ProgramType = s.ProgramType
		existing.UpdatedAt = now
		m.students[id] = existing
		*s = existing
		return false, nil
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt, s.UpdatedAt = now, now
	m.students[s.ID] = *s
	m.rolls[s.RollNumber] = s.ID
	return true, nil
}

func (m *Memory) SetStudentPassword(_ context.Context, id, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return false, nil
	}
	s.PasswordHash = hash
	s.UpdatedAt = m.now().UTC()
	m.students[id] = s
	return true, nil
}

// DeleteStudent removes the student and every attendance record it owns.
func (m *Memory) DeleteStudent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return false, nil
	}
	delete(m.students, id)
	delete(m.rolls, s.RollNumber)
	for k := range m.attendance {
		if k.studentID == id {
			delete(m.attendance, k)
		}
	}
	return true, nil
}

func (m *Memory) CountStudents(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// -------- Attendance --------

func (m *Memory) UpsertAttendance(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[rec.StudentID]; !ok {
		return model.AttendanceRecord{}, fmt.Errorf("attendance references a missing row: %w", apperr.ErrNotFound)
	}
	rec.Date = model.Day(rec.Date)
	key := attendanceKey{studentID: rec.StudentID, day: rec.Date}
	now := m.now().UTC()
	if existing, ok := m.attendance[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.attendance[key] = rec
	return rec, nil
}

func (m *Memory) ListStudentAttendance(_ context.Context, studentID string, r model.DateRange) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AttendanceRecord
	for k, rec := range m.attendance {
		if k.studentID == studentID && r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) ListAttendanceRows(_ context.Context, f model.RecordFilter) ([]model.AttendanceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AttendanceRow
	for _, rec := range m.attendance {
		if !f.Range.Contains(rec.Date) {
			continue
		}
		s, ok := m.students[rec.StudentID]
		if !ok || !f.MatchStudent(s) {
			continue
		}
		out = append(out, model.AttendanceRow{
			StudentID:     s.ID,
			StudentName:   s.Name,
			RollNumber:    s.RollNumber,
			Department:    s.Department,
			ProgramType:   s.ProgramType,
			Date:          rec.Date,
			AMPresent:     rec.AMPresent,
			PMPresent:     rec.PMPresent,
			TrainingEvent: rec.TrainingEvent,
			Remarks:       rec.Remarks,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RollNumber < out[j].RollNumber
	})
	return out, nil
}

// -------- Daily events --------

func (m *Memory) ListEvents(_ context.Context, r model.DateRange) ([]model.DailyEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.DailyEvent
	for _, e := range m.events {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) CreateEvent(_ context.Context, e *model.DailyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Date = model.Day(e.Date)
	if m.eventTaken(eventKey{day: e.Date, name: e.Name}, "") {
		return fmt.Errorf("event %w", apperr.ErrConflict)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := m.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	m.events[e.ID] = *e
	return nil
}

func (m *Memory) UpdateEvent(_ context.Context, id string, u model.EventUpdate) (*model.DailyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	if u.Date != nil {
		e.Date = model.Day(*u.Date)
	}
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Completed != nil {
		e.Completed = *u.Completed
	}
	if m.eventTaken(eventKey{day: e.Date, name: e.Name}, id) {
		return nil, fmt.Errorf("event %w", apperr.ErrConflict)
	}
	e.UpdatedAt = m.now().UTC()
	m.events[id] = e
	return &e, nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return false, nil
	}
	delete(m.events, id)
	return true, nil
}

func (m *Memory) eventTaken(k eventKey, except string) bool {
	for id, e := range m.events {
		if id != except && e.Date.Equal(k.day) && e.Name == k.name {
			return true
		}
	}
	return false
}
