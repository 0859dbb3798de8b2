package attendance

import (
	"context"
	"errors"
	"testing"

	"attendtrack/internal/apperr"
	"attendtrack/internal/importer"
	"attendtrack/internal/logger"
	"attendtrack/internal/model"
	"attendtrack/internal/store"
)

func newFixture(t *testing.T, rolls ...string) (*Service, *store.Memory, []model.Student) {
	t.Helper()
	mem := store.NewMemory()
	var students []model.Student
	for _, roll := range rolls {
		s := model.Student{RollNumber: roll, Name: "Student " + roll, Department: "CSE", ProgramType: model.ProgramUG}
		if err := mem.CreateStudent(context.Background(), &s); err != nil {
			t.Fatal(err)
		}
		students = append(students, s)
	}
	return NewService(mem, logger.Nop()), mem, students
}

func TestMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, mem, st := newFixture(t, "R1")

	for _, am := range []bool{true, false} {
		n, err := svc.Mark(ctx, MarkRequest{Date: "2026-03-02", Records: []MarkEntry{{StudentID: st[0].ID, AMPresent: am, PMPresent: true}}})
		if err != nil || n != 1 {
			t.Fatalf("mark: n=%d err=%v", n, err)
		}
	}

	recs, _ := mem.ListStudentAttendance(ctx, st[0].ID, model.DateRange{})
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if recs[0].AMPresent || !recs[0].PMPresent {
		t.Fatalf("latest values not kept: %+v", recs[0])
	}
}

func TestMarkAMOnlySummary(t *testing.T) {
	ctx := context.Background()
	svc, _, st := newFixture(t, "R1")
	id := st[0].ID

	if _, err := svc.Mark(ctx, MarkRequest{Date: "2026-03-02", Records: []MarkEntry{{StudentID: id, AMPresent: true}}}); err != nil {
		t.Fatal(err)
	}
	r, _ := model.NewDateRange("2026-03-02", "2026-03-02")
	got, err := svc.StudentSummary(ctx, model.Principal{ID: id, Role: model.RoleStudent}, id, r)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Summary: Summary{TotalDays: 1, PresentValue: 0.5, HalfDays: 1}, Percentage: 50}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMarkRejectsUnknownStudentBeforeWriting(t *testing.T) {
	ctx := context.Background()
	svc, mem, st := newFixture(t, "R1")

	_, err := svc.Mark(ctx, MarkRequest{Date: "2026-03-02", Records: []MarkEntry{
		{StudentID: st[0].ID, AMPresent: true},
		{StudentID: "6f1c1d55-0000-4000-8000-000000000000", AMPresent: true},
	}})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	rows, _ := mem.ListAttendanceRows(ctx, model.RecordFilter{})
	if len(rows) != 0 {
		t.Fatalf("expected no writes, got %d rows", len(rows))
	}
}

func TestMarkValidation(t *testing.T) {
	svc, _, st := newFixture(t, "R1")
	cases := []MarkRequest{
		{Records: []MarkEntry{{StudentID: st[0].ID}}},
		{Date: "2026-03-02"},
		{Date: "not a date", Records: []MarkEntry{{StudentID: st[0].ID}}},
		{Date: "2026-03-02", Records: []MarkEntry{{}}},
	}
	for i, req := range cases {
		if _, err := svc.Mark(context.Background(), req); !apperr.IsValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestHistoryAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, st := newFixture(t, "R1", "R2")

	_, err := svc.History(ctx, model.Principal{ID: st[1].ID, Role: model.RoleStudent}, st[0].ID, model.DateRange{})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	recs, err := svc.History(ctx, model.Principal{ID: "admin", Role: model.RoleAdmin}, st[0].ID, model.DateRange{})
	if err != nil || recs == nil || len(recs) != 0 {
		t.Fatalf("admin history: recs=%v err=%v", recs, err)
	}
	_, err = svc.History(ctx, model.Principal{ID: "admin", Role: model.RoleAdmin}, "missing", model.DateRange{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	svc, mem, st := newFixture(t, "R1", "R2")

	data := "Roll No,Date,AM,PM,Training Event,Remarks\n" +
		"r1,2026-03-02,1,true,Drill,\n" +
		"R2,2026-03-02,TRUE,no,,late\n" +
		"R9,2026-03-02,1,1,,\n" +
		",2026-03-02,1,1,,\n" +
		"R1,someday,1,1,,\n"
	res, err := svc.BulkImport(ctx, importer.FormatCSV, []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || res.Skipped != 3 {
		t.Fatalf("got %+v, want 2 imported 3 skipped", res)
	}

	recs, _ := mem.ListStudentAttendance(ctx, st[1].ID, model.DateRange{})
	if len(recs) != 1 || !recs[0].AMPresent || recs[0].PMPresent || recs[0].Remarks != "late" {
		t.Fatalf("unexpected R2 record: %+v", recs)
	}
	if n, _ := mem.CountStudents(ctx); n != 2 {
		t.Fatalf("bulk import must not create students, have %d", n)
	}
}

func TestBulkImportMissingColumn(t *testing.T) {
	svc, mem, _ := newFixture(t, "R1")
	_, err := svc.BulkImport(context.Background(), importer.FormatCSV, []byte("Roll No,AM,PM\nR1,1,1\n"))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	rows, _ := mem.ListAttendanceRows(context.Background(), model.RecordFilter{})
	if len(rows) != 0 {
		t.Fatal("no rows should be written")
	}
}
