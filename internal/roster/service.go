package roster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"attendtrack/internal/apperr"
	"attendtrack/internal/auth"
	"attendtrack/internal/importer"
	"attendtrack/internal/metrics"
	"attendtrack/internal/model"
)

// Repository is the slice of the store the roster service needs.
type Repository interface {
	CreateStudent(ctx context.Context, s *model.Student) error
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudents(ctx context.Context, f model.StudentFilter) ([]model.Student, error)
	UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (*model.Student, error)
	UpsertStudentProfile(ctx context.Context, s *model.Student) (bool, error)
	SetStudentPassword(ctx context.Context, id, hash string) (bool, error)
	DeleteStudent(ctx context.Context, id string) (bool, error)
}

// Options tune a Service. Zero values pick defaults.
type Options struct {
	Policy      CredentialPolicy
	Concurrency int
	Hash        func(string) (string, error)
}

// Service manages the roster: admin CRUD and spreadsheet reconciliation.
type Service struct {
	repo        Repository
	policy      CredentialPolicy
	concurrency int
	hash        func(string) (string, error)
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewService(repo Repository, opts Options, log zerolog.Logger) *Service {
	if opts.Policy == nil {
		opts.Policy = RollNumberPolicy{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Hash == nil {
		opts.Hash = auth.HashPassword
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		repo:        repo,
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		hash:        opts.Hash,
		validate:    v,
		log:         log,
	}
}

// Policy returns the active credential policy.
func (s *Service) Policy() CredentialPolicy { return s.policy }

// StudentInput is a new or imported roster entry before normalization.
type StudentInput struct {
	RollNumber  string `json:"roll_number" validate:"required,max=64"`
	Name        string `json:"student_name" validate:"required,max=200"`
	Department  string `json:"department" validate:"required,max=120"`
	ProgramType string `json:"program_type" validate:"required,oneof=UG PG"`
	Password    string `json:"password,omitempty" validate:"omitempty,min=4,max=72"`
}

func (in StudentInput) normalize() StudentInput {
	in.RollNumber = model.NormalizeRoll(in.RollNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)
	in.ProgramType = strings.ToUpper(strings.TrimSpace(in.ProgramType))
	return in
}

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return apperr.ValidationError{Field: fe.Field(), Value: fe.Value(), Message: describe(fe)}
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	}
	return "failed " + fe.Tag()
}

// Create adds one student. When the caller gives no password the credential
// policy supplies one, which is returned so it can be handed to the student.
func (s *Service) Create(ctx context.Context, in StudentInput) (*model.Student, string, error) {
	in = in.normalize()
	if err := s.check(in); err != nil {
		return nil, "", err
	}
	secret := in.Password
	if secret == "" {
		secret = s.policy.Initial(in.RollNumber)
	}
	hash, err := s.hash(secret)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	st := &model.Student{
		RollNumber:   in.RollNumber,
		Name:         in.Name,
		Department:   in.Department,
		ProgramType:  model.ProgramType(in.ProgramType),
		PasswordHash: hash,
	}
	if err := s.repo.CreateStudent(ctx, st); err != nil {
		return nil, "", err
	}
	s.log.Info().Str("roll_number", st.RollNumber).Msg("student created")
	if in.Password != "" {
		secret = ""
	}
	return st, secret, nil
}

// List returns the filtered roster, never nil.
func (s *Service) List(ctx context.Context, f model.StudentFilter) ([]model.Student, error) {
	f.Search = strings.TrimSpace(f.Search)
	out, err := s.repo.ListStudents(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Student{}
	}
	return out, nil
}

// Update changes profile fields. The roll number cannot be changed.
func (s *Service) Update(ctx context.Context, id string, u model.StudentUpdate) (*model.Student, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, apperr.Invalid("student_name", "must not be empty")
		}
		u.Name = &name
	}
	if u.Department != nil {
		dept := strings.TrimSpace(*u.Department)
		if dept == "" {
			return nil, apperr.Invalid("department", "must not be empty")
		}
		u.Department = &dept
	}
	if u.ProgramType != nil {
		p, ok := model.ParseProgramType(string(*u.ProgramType))
		if !ok {
			return nil, apperr.ValidationError{Field: "program_type", Value: *u.ProgramType, Message: "must be one of UG PG"}
		}
		u.ProgramType = &p
	}
	st, err := s.repo.UpdateStudent(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperr.NotFound("student")
	}
	return st, nil
}

// SetPassword replaces a student's credential.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < 4 || len(password) > 72 {
		return apperr.Invalid("password", "must be between 4 and 72 characters")
	}
	hash, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ok, err := s.repo.SetStudentPassword(ctx, id, hash)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("student")
	}
	return nil
}

// Delete removes a student together with its attendance.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteStudent(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("student")
	}
	s.log.Info().Str("student_id", id).Msg("student deleted")
	return nil
}

// Credential is the one-time secret of a student created by an import.
type Credential struct {
	RollNumber      string `json:"roll_number"`
	InitialPassword string `json:"initial_password"`
}

// ImportResult adds the secrets of newly created students to the row counts.
// Credentials stay empty under a derivable policy.
type ImportResult struct {
	importer.Result
	Credentials []Credential `json:"credentials,omitempty"`
}

// Import reconciles an uploaded roster against the store. The header row is
// checked before anything is written. Each valid row then overwrites the
// profile of the student with its roll number, or creates that student with
// a policy-derived credential. Existing credentials are left alone and are
// never re-hashed. Invalid rows are counted as skipped.
//
// Rows sharing a roll number are applied in file order so the last one wins;
// distinct roll numbers are upserted concurrently.
func (s *Service) Import(ctx context.Context, format importer.Format, data []byte) (ImportResult, error) {
	rows, err := importer.ParseStudents(format, data)
	if err != nil {
		return ImportResult{}, err
	}

	var (
		skipped int
		order   []string
		groups  = make(map[string][]StudentInput)
	)
	for _, row := range rows {
		in := StudentInput{
			RollNumber:  row.RollNumber,
			Name:        row.Name,
			Department:  row.Department,
			ProgramType: row.ProgramType,
		}.normalize()
		if err := s.check(in); err != nil {
			s.log.Debug().Int("line", row.Line).Err(err).Msg("skipping roster row")
			skipped++
			continue
		}
		if _, ok := groups[in.RollNumber]; !ok {
			order = append(order, in.RollNumber)
		}
		groups[in.RollNumber] = append(groups[in.RollNumber], in)
	}

	var imported atomic.Int64
	// One slot per roll number so goroutines never share a write target.
	issued := make([]string, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, roll := range order {
		i, roll := i, roll
		batch := groups[roll]
		g.Go(func() error {
			for _, in := range batch {
				st := &model.Student{
					RollNumber:  in.RollNumber,
					Name:        in.Name,
					Department:  in.Department,
					ProgramType: model.ProgramType(in.ProgramType),
				}
				inserted, err := s.repo.UpsertStudentProfile(gctx, st)
				if err != nil {
					return fmt.Errorf("upsert roll %s: %w", roll, err)
				}
				imported.Add(1)
				if !inserted {
					continue
				}
				secret := s.policy.Initial(roll)
				hash, err := s.hash(secret)
				if err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				if _, err := s.repo.SetStudentPassword(gctx, st.ID, hash); err != nil {
					return fmt.Errorf("set password for roll %s: %w", roll, err)
				}
				issued[i] = secret
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Result: importer.Result{Imported: int(imported.Load()), Skipped: skipped}}
	if !s.policy.Derivable() {
		for i, secret := range issued {
			if secret != "" {
				res.Credentials = append(res.Credentials, Credential{RollNumber: order[i], InitialPassword: secret})
			}
		}
	}
	metrics.RecordImport("roster", res.Imported, res.Skipped)
	s.log.Info().Int("rows", len(rows)).Int("imported", res.Imported).Int("skipped", res.Skipped).
		Int("credentials_issued", len(res.Credentials)).Msg("roster import finished")
	return res, nil
}
