package events

import (
	"context"
	"strings"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

// Repository persists the institutional calendar.
type Repository interface {
	ListEvents(ctx context.Context, r model.DateRange) ([]model.DailyEvent, error)
	CreateEvent(ctx context.Context, e *model.DailyEvent) error
	UpdateEvent(ctx context.Context, id string, u model.EventUpdate) (*model.DailyEvent, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input is the create payload; Date accepts any layout model.ParseDay does.
type Input struct {
	Date        string `json:"date"`
	Name        string `json:"event_name"`
	Description string `json:"event_description"`
	Completed   bool   `json:"completed"`
}

func (s *Service) List(ctx context.Context, r model.DateRange) ([]model.DailyEvent, error) {
	out, err := s.repo.ListEvents(ctx, r)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.DailyEvent{}
	}
	return out, nil
}

// Create adds an event; the same name twice on one day is a conflict.
func (s *Service) Create(ctx context.Context, in Input) (*model.DailyEvent, error) {
	if strings.TrimSpace(in.Date) == "" {
		return nil, apperr.Invalid("date", "date is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("event_name", "event_name is required")
	}
	day, err := model.ParseDay(in.Date)
	if err != nil {
		return nil, apperr.ValidationError{Field: "date", Value: in.Date, Message: "expected YYYY-MM-DD"}
	}
	e := &model.DailyEvent{
		Date:        day,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Completed:   in.Completed,
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Patch is the update payload; nil fields are left untouched.
type Patch struct {
	Date        *string `json:"date"`
	Name        *string `json:"event_name"`
	Description *string `json:"event_description"`
	Completed   *bool   `json:"completed"`
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.DailyEvent, error) {
	var u model.EventUpdate
	if p.Date != nil {
		day, err := model.ParseDay(*p.Date)
		if err != nil {
			return nil, apperr.ValidationError{Field: "date", Value: *p.Date, Message: "expected YYYY-MM-DD"}
		}
		u.Date = &day
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.Invalid("event_name", "must not be empty")
		}
		u.Name = &name
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		u.Description = &desc
	}
	u.Completed = p.Completed

	e, err := s.repo.UpdateEvent(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.NotFound("event")
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteEvent(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("event")
	}
	return nil
}
