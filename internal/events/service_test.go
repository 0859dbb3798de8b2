package events

import (
	"context"
	"errors"
	"testing"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
	"attendtrack/internal/store"
)

func TestEventLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	e, err := svc.Create(ctx, Input{Date: "2026-03-02T10:30:00Z", Name: " Orientation ", Description: "Hall A"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "Orientation" || e.Date.Format(model.DayLayout) != "2026-03-02" || e.Date.Hour() != 0 {
		t.Fatalf("unexpected event %+v", e)
	}
	if _, err := svc.Create(ctx, Input{Date: "2026-03-02", Name: "Orientation"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	done := true
	moved := "2026-03-05"
	updated, err := svc.Update(ctx, e.ID, Patch{Date: &moved, Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Completed || updated.Date.Format(model.DayLayout) != moved || updated.Description != "Hall A" {
		t.Fatalf("unexpected update %+v", updated)
	}

	r, _ := model.NewDateRange("2026-03-01", "2026-03-03")
	list, err := svc.List(ctx, r)
	if err != nil || len(list) != 0 {
		t.Fatalf("moved event should be outside range: %+v %v", list, err)
	}

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Update(ctx, e.ID, Patch{Completed: &done}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventValidation(t *testing.T) {
	svc := NewService(store.NewMemory())
	for i, in := range []Input{
		{Name: "No date"},
		{Date: "2026-03-02"},
		{Date: "yesterday", Name: "Bad date"},
	} {
		if _, err := svc.Create(context.Background(), in); !apperr.IsValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}
