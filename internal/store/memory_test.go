package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

func seedStudent(t *testing.T, m *Memory, roll, name, dept string) model.Student {
	t.Helper()
	s := model.Student{RollNumber: roll, Name: name, Department: dept, ProgramType: model.ProgramUG, PasswordHash: "h"}
	if err := m.CreateStudent(context.Background(), &s); err != nil {
		t.Fatalf("create student %s: %v", roll, err)
	}
	return s
}

func TestMemoryStudentUniqueness(t *testing.T) {
	m := NewMemory()
	seedStudent(t, m, "R1", "Asha", "CSE")

	dup := model.Student{RollNumber: "R1", Name: "Other", Department: "ECE", ProgramType: model.ProgramPG}
	err := m.CreateStudent(context.Background(), &dup)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemoryUpsertProfileKeepsPassword(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	orig := seedStudent(t, m, "R1", "Asha", "CSE")

	next := model.Student{RollNumber: "R1", Name: "Asha K", Department: "ECE", ProgramType: model.ProgramPG, PasswordHash: "new"}
	created, err := m.UpsertStudentProfile(ctx, &next)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created {
		t.Fatal("existing roll number must update, not create")
	}
	got, _ := m.GetStudent(ctx, orig.ID)
	if got.Name != "Asha K" || got.Department != "ECE" || got.ProgramType != model.ProgramPG {
		t.Fatalf("profile not overwritten: %+v", got)
	}
	if got.PasswordHash != "h" {
		t.Fatalf("password hash changed to %q", got.PasswordHash)
	}
}

func TestMemoryAttendanceUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := seedStudent(t, m, "R1", "Asha", "CSE")
	day := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	if _, err := m.UpsertAttendance(ctx, model.AttendanceRecord{StudentID: s.ID, Date: day, AMPresent: true}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := m.UpsertAttendance(ctx, model.AttendanceRecord{StudentID: s.ID, Date: day, PMPresent: true}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	recs, _ := m.ListStudentAttendance(ctx, s.ID, model.DateRange{})
	if len(recs) != 1 {
		t.Fatalf("expected one record per day, got %d", len(recs))
	}
	if recs[0].AMPresent || !recs[0].PMPresent {
		t.Fatalf("flags not replaced: %+v", recs[0])
	}
	if !recs[0].Date.Equal(model.Day(day)) {
		t.Fatalf("date not truncated: %v", recs[0].Date)
	}
}

func TestMemoryAttendanceUnknownStudent(t *testing.T) {
	m := NewMemory()
	_, err := m.UpsertAttendance(context.Background(), model.AttendanceRecord{StudentID: "missing", Date: time.Now()})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := seedStudent(t, m, "R1", "Asha", "CSE")
	b := seedStudent(t, m, "R2", "Bala", "CSE")
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{a.ID, b.ID} {
		if _, err := m.UpsertAttendance(ctx, model.AttendanceRecord{StudentID: id, Date: day, AMPresent: true}); err != nil {
			t.Fatal(err)
		}
	}

	ok, err := m.DeleteStudent(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	rows, _ := m.ListAttendanceRows(ctx, model.RecordFilter{})
	if len(rows) != 1 || rows[0].StudentID != b.ID {
		t.Fatalf("expected only R2 rows, got %+v", rows)
	}
	if again, _ := m.DeleteStudent(ctx, a.ID); again {
		t.Fatal("second delete should report missing")
	}
	if s, _ := m.FindStudentByRoll(ctx, "R1"); s != nil {
		t.Fatal("roll index not cleared")
	}
}

func TestMemoryListAttendanceRowsFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := seedStudent(t, m, "R2", "Bala", "CSE")
	b := seedStudent(t, m, "R1", "Asha", "ECE")
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	for _, rec := range []model.AttendanceRecord{
		{StudentID: a.ID, Date: d2, AMPresent: true},
		{StudentID: b.ID, Date: d1, AMPresent: true},
		{StudentID: a.ID, Date: d1, PMPresent: true},
	} {
		if _, err := m.UpsertAttendance(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	rows, _ := m.ListAttendanceRows(ctx, model.RecordFilter{})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].RollNumber != "R1" || rows[1].RollNumber != "R2" || !rows[2].Date.Equal(d2) {
		t.Fatalf("unexpected order: %+v", rows)
	}

	rows, _ = m.ListAttendanceRows(ctx, model.RecordFilter{Department: "CSE", Range: model.SingleDay(d1)})
	if len(rows) != 1 || rows[0].StudentID != a.ID {
		t.Fatalf("filter mismatch: %+v", rows)
	}
}

func TestMemoryEventConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first := model.DailyEvent{Date: day, Name: "Orientation"}
	if err := m.CreateEvent(ctx, &first); err != nil {
		t.Fatal(err)
	}
	dup := model.DailyEvent{Date: day.Add(time.Hour), Name: "Orientation"}
	if err := m.CreateEvent(ctx, &dup); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	other := model.DailyEvent{Date: day, Name: "Lab"}
	if err := m.CreateEvent(ctx, &other); err != nil {
		t.Fatal(err)
	}
	name := "Orientation"
	if _, err := m.UpdateEvent(ctx, other.ID, model.EventUpdate{Name: &name}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("rename onto existing event should conflict, got %v", err)
	}
}
